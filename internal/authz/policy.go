package authz

import "github.com/google/uuid"

// LeadRef carrega os campos de um lead relevantes para autorização.
type LeadRef struct {
	TenantID uuid.UUID
	OwnerID  uuid.UUID
}

// Decision é o resultado da avaliação de política para um lead.
type Decision struct {
	Read  bool
	Write bool
}

// CanAccess decide se o principal pode ler/escrever o lead. Função pura,
// reavaliada a cada requisição. Precedência:
//  1. SUPER_ADMIN e ADMFULL: acesso total independente de imobiliária.
//  2. ADMIN: somente leads da própria imobiliária.
//  3. CORRETOR: somente leads dos quais é responsável.
//  4. Demais papéis (ou ADMIN sem imobiliária): negado.
func CanAccess(p Principal, lead LeadRef) Decision {
	switch p.Role {
	case RoleSuperAdmin, RoleAdmFull:
		return Decision{Read: true, Write: true}
	case RoleAdmin:
		if p.TenantID == nil {
			return Decision{}
		}
		if *p.TenantID == lead.TenantID {
			return Decision{Read: true, Write: true}
		}
		return Decision{}
	case RoleCorretor:
		if p.UserID == lead.OwnerID {
			return Decision{Read: true, Write: true}
		}
		return Decision{}
	}
	return Decision{}
}
