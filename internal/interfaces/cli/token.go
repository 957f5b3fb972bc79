package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-sellador/pkg/jwt"
)

func newTokenCmd(e *env) *cobra.Command {
	var userID, companyID, role string
	var minutes int
	cmd := &cobra.Command{
		Use:   "token --company <id>",
		Short: "Emite un JWT firmado con JWT_SECRET (desarrollo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleEmisor, jwt.RoleAuditor:
			default:
				return fmt.Errorf("rol desconocido %q (admin, emisor, auditor)", role)
			}
			if userID == "" {
				userID = uuid.NewString()
			}
			if minutes <= 0 {
				minutes = e.cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(e.cfg.JWT.Secret, userID, companyID, role, e.cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "empresa (claim company_id)")
	cmd.Flags().StringVar(&userID, "user", "", "usuario (default UUID aleatorio)")
	cmd.Flags().StringVar(&role, "role", jwt.RoleEmisor, "rol: admin, emisor, auditor")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (default JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
