package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/internal/application/dto"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/artifact"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/pac"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/pdf"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/cadena"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/signer"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

type sealOptions struct {
	input     string
	encoding  string
	cer       string
	key       string
	password  string
	keyFormat string
	outDir    string
	outFile   string
	stamp     bool
	pdf       string
}

func newSealCmd(e *env) *cobra.Command {
	o := &sealOptions{}
	cmd := &cobra.Command{
		Use:   "sellar --input comprobante.json",
		Short: "Sella un comprobante descrito en JSON y escribe el XML",
		Long: `Lee el comprobante (mismo JSON que POST /api/cfdi), lo serializa, deriva la
cadena original, la firma con el CSD e incrusta el sello. El XML sellado
queda en --out-dir/--out-file. Con --timbrar se envía al PAC y el XML
timbrado se guarda como <UUID>.xml en el mismo directorio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.applyDefaults(cmd, e)
			return runSeal(cmd, e, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "JSON del comprobante")
	f.StringVar(&o.encoding, "encoding", "auto", "codificación del JSON (auto, utf-8, windows-1252, iso-8859-1)")
	f.StringVar(&o.cer, "cer", "", "certificado .cer (default CFDI_CERT_PATH)")
	f.StringVar(&o.key, "key", "", "llave privada (default CFDI_KEY_PATH)")
	f.StringVar(&o.password, "password", "", "contraseña de la llave (default CFDI_KEY_PASSWORD)")
	f.StringVar(&o.keyFormat, "key-format", "", "formato de la llave: der, pem, p12 (default CFDI_KEY_FORMAT)")
	f.StringVar(&o.outDir, "out-dir", "", "directorio de salida (default CFDI_OUTPUT_DIR)")
	f.StringVar(&o.outFile, "out-file", "", "nombre del XML sellado (default CFDI_OUTPUT_FILE)")
	f.BoolVar(&o.stamp, "timbrar", false, "enviar al PAC después de sellar")
	f.StringVar(&o.pdf, "pdf", "", "escribir la representación impresa en esta ruta")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// applyDefaults completa con la configuración los flags que no se dieron.
func (o *sealOptions) applyDefaults(cmd *cobra.Command, e *env) {
	c := e.cfg.CFDI
	for _, d := range []struct {
		flag string
		dst  *string
		def  string
	}{
		{"cer", &o.cer, c.CertPath},
		{"key", &o.key, c.KeyPath},
		{"password", &o.password, c.KeyPassword},
		{"key-format", &o.keyFormat, c.KeyFormat},
		{"out-dir", &o.outDir, c.OutputDir},
		{"out-file", &o.outFile, c.OutputFile},
	} {
		if !cmd.Flags().Changed(d.flag) {
			*d.dst = d.def
		}
	}
}

func runSeal(cmd *cobra.Command, e *env, o *sealOptions) error {
	out := cmd.OutOrStdout()

	raw, err := readText(o.input, o.encoding)
	if err != nil {
		return err
	}
	var in dto.SealCFDIRequest
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("%s: JSON inválido: %w", o.input, err)
	}
	doc, err := billing.DocumentFromRequest(in, time.Now())
	if err != nil {
		return err
	}

	templates, err := loadTemplates(e)
	if err != nil {
		return err
	}
	format, err := pkgsat.ParseKeyFormat(o.keyFormat)
	if err != nil {
		return err
	}
	creds, err := billing.LoadCredentials(billing.CSDConfig{
		CertPath:    o.cer,
		KeyPath:     o.key,
		KeyPassword: o.password,
		KeyFormat:   format,
	})
	if err != nil {
		return err
	}

	store := artifact.NewFileStore(o.outDir, o.outFile)
	res, err := billing.NewSealPipeline(templates, signer.NewService(), store, e.log).Seal(doc, creds)
	if err != nil {
		if stage, ok := billing.FailedStage(err); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "falló la etapa %q\n", stage)
		}
		return err
	}

	fmt.Fprintf(out, "NoCertificado: %s\n", res.Seal.CertificateNumber)
	if res.CertificateExpired {
		fmt.Fprintln(out, "AVISO: el certificado no está vigente; el PAC rechazará el comprobante")
	}
	fmt.Fprintf(out, "Cadena original: %s\n", res.Cadena)
	fmt.Fprintf(out, "XML sellado: %s\n", res.ArtifactPath)

	current := res.Sealed
	if o.stamp {
		if !e.cfg.PAC.Enabled() {
			return fmt.Errorf("--timbrar requiere PAC_USER y PAC_PASSWORD")
		}
		client := pac.NewClient(pac.Config{
			AuthURL:  e.cfg.PAC.AuthURL,
			StampURL: e.cfg.PAC.StampURL,
			User:     e.cfg.PAC.User,
			Password: e.cfg.PAC.Password,
			CustomID: e.cfg.PAC.CustomID,
			Timeout:  e.cfg.PAC.Timeout,
		}, e.log)
		receipt, err := client.Stamp(cmd.Context(), res.Sealed)
		if err != nil {
			return err
		}
		if _, err := uuid.Parse(receipt.UUID); err != nil {
			return fmt.Errorf("UUID del PAC %q inválido: %w", receipt.UUID, err)
		}
		path, err := artifact.NewFileStore(o.outDir, receipt.UUID+".xml").Save(receipt.StampedXML)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "UUID: %s\n", receipt.UUID)
		fmt.Fprintf(out, "XML timbrado: %s\n", path)
		current = receipt.StampedXML
	}

	if o.pdf != "" {
		if err := writePDF(cmd, current, o.pdf, out); err != nil {
			return err
		}
	}
	return nil
}

func writePDF(cmd *cobra.Command, xml []byte, path string, out io.Writer) error {
	view, err := sat.ParseComprobante(xml)
	if err != nil {
		return err
	}
	data, err := pdf.NewMarotoPDFGenerator().GenerateCFDIPDF(cmd.Context(), view)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", path, err)
	}
	fmt.Fprintf(out, "PDF: %s\n", path)
	return nil
}

// loadTemplates plantillas embebidas más las de CFDI_TEMPLATE_DIR.
func loadTemplates(e *env) (*cadena.Registry, error) {
	templates, err := cadena.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if dir := e.cfg.CFDI.TemplateDir; dir != "" {
		if _, err := templates.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return templates, nil
}
