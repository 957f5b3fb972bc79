package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
)

func newCertificateCmd(e *env) *cobra.Command {
	var path string
	var withBase64 bool
	cmd := &cobra.Command{
		Use:   "certificado [--cer csd.cer]",
		Short: "Muestra NoCertificado y vigencia del CSD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = e.cfg.CFDI.CertPath
			}
			if path == "" {
				return fmt.Errorf("indique --cer o CFDI_CERT_PATH")
			}
			info, err := sat.ReadCertificateFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "NoCertificado: %s\n", info.Number)
			fmt.Fprintf(out, "Titular: %s\n", info.Certificate.Subject.CommonName)
			fmt.Fprintf(out, "Vigencia: %s a %s\n",
				info.Certificate.NotBefore.Format("2006-01-02"), info.Certificate.NotAfter.Format("2006-01-02"))
			if info.Expired(now()) {
				fmt.Fprintln(out, "AVISO: el certificado no está vigente")
			}
			if withBase64 {
				fmt.Fprintf(out, "Certificado: %s\n", info.Base64)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "cer", "", "certificado .cer (default CFDI_CERT_PATH)")
	cmd.Flags().BoolVar(&withBase64, "base64", false, "imprimir también el atributo Certificado")
	return cmd
}
