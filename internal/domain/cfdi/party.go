package cfdi

import (
	"fmt"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// Role distingue al emisor del receptor; las reglas obligatorias cambian según el rol.
type Role string

const (
	RoleIssuer    Role = "emisor"
	RoleRecipient Role = "receptor"
)

// Party es un contribuyente (persona física o moral) que participa en el comprobante.
type Party struct {
	Rfc          string
	Name         string
	FiscalRegime string // c_RegimenFiscal
	PostalCode   string // DomicilioFiscalReceptor; obligatorio solo para el receptor
	CfdiUse      string // c_UsoCFDI; obligatorio solo para el receptor
}

// Validate aplica las reglas obligatorias del rol.
// RFC y régimen fiscal siempre; código postal y uso CFDI solo para el receptor.
func (p Party) Validate(role Role) error {
	if err := sat.ValidateRFC(p.Rfc); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidParty, role, err)
	}
	if p.FiscalRegime == "" {
		return fmt.Errorf("%w: %s: régimen fiscal obligatorio", domain.ErrInvalidParty, role)
	}
	if role == RoleRecipient {
		if p.PostalCode == "" {
			return fmt.Errorf("%w: %s: domicilio fiscal (código postal) obligatorio", domain.ErrInvalidParty, role)
		}
		if p.CfdiUse == "" {
			return fmt.Errorf("%w: %s: uso CFDI obligatorio", domain.ErrInvalidParty, role)
		}
	}
	return nil
}
