package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/cadena"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

func newCadenaCmd(e *env) *cobra.Command {
	var path, encoding string
	cmd := &cobra.Command{
		Use:   "cadena --xml comprobante.xml",
		Short: "Deriva la cadena original de un XML ya serializado",
		Long: `Aplica la plantilla de la versión declarada en cfdi:Comprobante/@Version
e imprime la cadena original. Sirve para comparar contra la XSLT del SAT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readText(path, encoding)
			if err != nil {
				return err
			}
			view, err := sat.ParseComprobante(data)
			if err != nil {
				return err
			}
			version := view.Version
			if version == "" {
				version = pkgsat.VersionV40
			}
			templates, err := loadTemplates(e)
			if err != nil {
				return err
			}
			tpl, err := templates.Lookup(version)
			if err != nil {
				return err
			}
			out, err := cadena.NewDeriver().Derive(data, tpl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "xml", "", "XML del comprobante")
	cmd.Flags().StringVar(&encoding, "encoding", "auto", "codificación del XML (auto, utf-8, windows-1252, iso-8859-1)")
	_ = cmd.MarkFlagRequired("xml")
	return cmd
}
