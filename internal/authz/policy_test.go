package authz

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanAccess(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	corretorA := uuid.New()
	corretorB := uuid.New()

	lead := LeadRef{TenantID: tenantA, OwnerID: corretorA}

	tests := []struct {
		name      string
		principal Principal
		wantRead  bool
		wantWrite bool
	}{
		{"super admin qualquer tenant", Principal{UserID: uuid.New(), Role: RoleSuperAdmin}, true, true},
		{"admfull qualquer tenant", Principal{UserID: uuid.New(), Role: RoleAdmFull, TenantID: &tenantB}, true, true},
		{"admin mesmo tenant", Principal{UserID: uuid.New(), Role: RoleAdmin, TenantID: &tenantA}, true, true},
		{"admin outro tenant", Principal{UserID: uuid.New(), Role: RoleAdmin, TenantID: &tenantB}, false, false},
		{"admin sem tenant", Principal{UserID: uuid.New(), Role: RoleAdmin}, false, false},
		{"corretor dono", Principal{UserID: corretorA, Role: RoleCorretor, TenantID: &tenantA}, true, true},
		{"corretor de outro lead", Principal{UserID: corretorB, Role: RoleCorretor, TenantID: &tenantA}, false, false},
		{"corretor de outro tenant", Principal{UserID: corretorB, Role: RoleCorretor, TenantID: &tenantB}, false, false},
		{"papel desconhecido", Principal{UserID: corretorA, Role: "VISITANTE", TenantID: &tenantA}, false, false},
		{"papel vazio", Principal{UserID: corretorA}, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CanAccess(tc.principal, lead)
			if got.Read != tc.wantRead || got.Write != tc.wantWrite {
				t.Fatalf("CanAccess = %+v, esperado read=%v write=%v", got, tc.wantRead, tc.wantWrite)
			}
		})
	}
}

func TestCanAccessReadEqualsWrite(t *testing.T) {
	// Neste modelo não há papel somente-leitura: read e write andam juntos.
	tenant := uuid.New()
	lead := LeadRef{TenantID: tenant, OwnerID: uuid.New()}
	for _, role := range []string{RoleCorretor, RoleAdmin, RoleSuperAdmin, RoleAdmFull, "OUTRO"} {
		d := CanAccess(Principal{UserID: uuid.New(), Role: role, TenantID: &tenant}, lead)
		if d.Read != d.Write {
			t.Fatalf("papel %s: read (%v) difere de write (%v)", role, d.Read, d.Write)
		}
	}
}
