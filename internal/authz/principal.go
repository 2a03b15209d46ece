package authz

import "github.com/google/uuid"

// Papéis reconhecidos pela plataforma.
const (
	RoleCorretor   = "CORRETOR"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmFull    = "ADMFULL"
)

// Principal representa a identidade resolvida do chamador. Toda operação de
// domínio recebe o principal como parâmetro explícito; nenhum pacote lê
// sessão de estado global.
type Principal struct {
	UserID   uuid.UUID
	Role     string
	TenantID *uuid.UUID
	TeamID   *uuid.UUID
}

// IsSuper indica papel com visão global (todas as imobiliárias).
func (p Principal) IsSuper() bool {
	return p.Role == RoleSuperAdmin || p.Role == RoleAdmFull
}

// IsAdminOrAbove indica ADMIN ou papel superior.
func (p Principal) IsAdminOrAbove() bool {
	return p.Role == RoleAdmin || p.IsSuper()
}

// ValidRole informa se o papel é conhecido.
func ValidRole(role string) bool {
	switch role {
	case RoleCorretor, RoleAdmin, RoleSuperAdmin, RoleAdmFull:
		return true
	}
	return false
}
