// Package cli implementa el binario sellar: sellado de CFDI desde la línea
// de comandos, derivación de la cadena original y utilidades del CSD.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-sellador/pkg/config"
	"github.com/jhoicas/cfdi-sellador/pkg/logger"
)

const logLevelFlag = "log-level"

var now = time.Now

// env configuración y logger compartidos por los subcomandos.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

// New arma el comando raíz con todos los subcomandos.
func New() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:   "sellar [sub-command]",
		Short: "Sella comprobantes CFDI 4.0 con el CSD del emisor",
		Long: `sellar genera el XML canónico de un CFDI 4.0, deriva su cadena original,
la firma con el Certificado de Sello Digital (RSA-SHA256) e incrusta
Sello, NoCertificado y Certificado. Opcionalmente lo timbra con el PAC.

La configuración se lee de variables de entorno (CFDI_CERT_PATH,
CFDI_KEY_PATH, CFDI_KEY_PASSWORD, PAC_USER, ...) y de .env; los flags
tienen prioridad.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(logLevelFlag) {
				cfg.App.LogLevel, _ = cmd.Flags().GetString(logLevelFlag)
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: cmd.ErrOrStderr()})
			return nil
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().String(logLevelFlag, "info", "nivel de log (trace, debug, info, warn, error)")

	cmd.AddCommand(newSealCmd(e))
	cmd.AddCommand(newCadenaCmd(e))
	cmd.AddCommand(newCertificateCmd(e))
	cmd.AddCommand(newTokenCmd(e))
	return cmd
}
