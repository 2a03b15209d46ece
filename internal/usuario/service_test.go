package usuario

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
)

type stubStore struct {
	usuarios map[uuid.UUID]*Usuario
	created  []CreateInput
	entries  []audit.Entry
}

func newStubStore() *stubStore {
	return &stubStore{usuarios: map[uuid.UUID]*Usuario{}}
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *stubStore) GetByEmail(ctx context.Context, email string) (*Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubStore) List(ctx context.Context, tenantID *uuid.UUID) ([]Usuario, error) {
	var result []Usuario
	for _, u := range s.usuarios {
		if tenantID != nil && (u.TenantID == nil || *u.TenantID != *tenantID) {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (s *stubStore) Create(ctx context.Context, input CreateInput, senhaHash string, entry audit.Entry) (*Usuario, error) {
	s.created = append(s.created, input)
	s.entries = append(s.entries, entry)
	u := &Usuario{ID: uuid.New(), Nome: input.Nome, Email: input.Email, Role: input.Role, Status: StatusAtivo, TenantID: input.TenantID}
	s.usuarios[u.ID] = u
	return u, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.entries = append(s.entries, entry)
	if input.Nome != nil {
		u.Nome = *input.Nome
	}
	if input.Status != nil {
		u.Status = *input.Status
	}
	return u, nil
}

func TestCreateAdminForcaPropriaImobiliaria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenantA := uuid.New()
	tenantB := uuid.New()
	admin := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenantA}

	created, err := svc.Create(context.Background(), admin, CreateInput{
		Nome:     "Corretor Novo",
		Email:    "novo@imob.com.br",
		Senha:    "segredo-forte",
		Role:     authz.RoleCorretor,
		TenantID: &tenantB, // ignorado: admin só cria na própria imobiliária
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.TenantID == nil || *created.TenantID != tenantA {
		t.Fatalf("corretor criado fora da imobiliária do admin: %v", created.TenantID)
	}
}

func TestCreateAdminNaoCriaAdmin(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenant := uuid.New()
	admin := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenant}

	_, err := svc.Create(context.Background(), admin, CreateInput{
		Nome:  "Outro Admin",
		Email: "outro@imob.com.br",
		Senha: "segredo-forte",
		Role:  authz.RoleAdmin,
	}, audit.Meta{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, obtido %v", err)
	}
}

func TestCreateCorretorNaoCria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenant := uuid.New()
	corretor := authz.Principal{UserID: uuid.New(), Role: authz.RoleCorretor, TenantID: &tenant}

	_, err := svc.Create(context.Background(), corretor, CreateInput{
		Nome:     "Intruso",
		Email:    "intruso@imob.com.br",
		Senha:    "segredo-forte",
		Role:     authz.RoleCorretor,
		TenantID: &tenant,
	}, audit.Meta{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, obtido %v", err)
	}
}

func TestCreateCorretorExigeImobiliaria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	super := authz.Principal{UserID: uuid.New(), Role: authz.RoleSuperAdmin}

	_, err := svc.Create(context.Background(), super, CreateInput{
		Nome:  "Sem Tenant",
		Email: "sem@imob.com.br",
		Senha: "segredo-forte",
		Role:  authz.RoleCorretor,
	}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("esperado ErrValidation, obtido %v", err)
	}
}

func TestUpdateAdminNaoAlteraCorretorDeOutraImobiliaria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenantA := uuid.New()
	tenantB := uuid.New()
	alvo := &Usuario{ID: uuid.New(), Nome: "Alvo", Email: "alvo@imob.com.br", Role: authz.RoleCorretor, Status: StatusAtivo, TenantID: &tenantB}
	store.usuarios[alvo.ID] = alvo

	admin := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenantA}
	nome := "Renomeado"

	_, err := svc.Update(context.Background(), admin, alvo.ID, UpdateInput{Nome: &nome}, audit.Meta{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, obtido %v", err)
	}
}

func TestUpdateAuditaMudanca(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenant := uuid.New()
	alvo := &Usuario{ID: uuid.New(), Nome: "Alvo", Email: "alvo@imob.com.br", Role: authz.RoleCorretor, Status: StatusAtivo, TenantID: &tenant}
	store.usuarios[alvo.ID] = alvo

	admin := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenant}
	status := StatusInativo

	if _, err := svc.Update(context.Background(), admin, alvo.ID, UpdateInput{Status: &status}, audit.Meta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(store.entries) != 1 {
		t.Fatalf("esperada 1 entrada de auditoria, obtidas %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.Action != audit.ActionUpdate || entry.EntityType != "Usuario" {
		t.Fatalf("entrada inesperada: %+v", entry)
	}
	if entry.TenantID == nil || *entry.TenantID != tenant {
		t.Fatalf("auditoria sem snapshot de imobiliária")
	}
}
