package status

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
)

type stubStore struct {
	statuses  map[uuid.UUID]*StatusCustom
	leadCount map[uuid.UUID]int64
	deleted   []uuid.UUID
	entries   []audit.Entry
}

func newStubStore() *stubStore {
	return &stubStore{statuses: map[uuid.UUID]*StatusCustom{}, leadCount: map[uuid.UUID]int64{}}
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (*StatusCustom, error) {
	st, ok := s.statuses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func (s *stubStore) List(ctx context.Context, tenantID *uuid.UUID) ([]StatusCustom, error) {
	var result []StatusCustom
	for _, st := range s.statuses {
		if tenantID != nil && st.TenantID != *tenantID {
			continue
		}
		result = append(result, *st)
	}
	return result, nil
}

func (s *stubStore) ExistsByNome(ctx context.Context, tenantID uuid.UUID, nome string, exclude *uuid.UUID) (bool, error) {
	for id, st := range s.statuses {
		if exclude != nil && id == *exclude {
			continue
		}
		if st.TenantID == tenantID && strings.EqualFold(st.Nome, strings.TrimSpace(nome)) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) CountLeads(ctx context.Context, statusID uuid.UUID) (int64, error) {
	return s.leadCount[statusID], nil
}

func (s *stubStore) Insert(ctx context.Context, tenantID uuid.UUID, nome, cor, descricao string, entry audit.Entry) (*StatusCustom, error) {
	st := &StatusCustom{ID: uuid.New(), TenantID: tenantID, Nome: strings.TrimSpace(nome), Cor: cor, Descricao: descricao, Ativo: true}
	s.statuses[st.ID] = st
	s.entries = append(s.entries, entry)
	return st, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*StatusCustom, error) {
	st, ok := s.statuses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if input.Nome != nil {
		st.Nome = *input.Nome
	}
	s.entries = append(s.entries, entry)
	return st, nil
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID, entry audit.Entry) error {
	if _, ok := s.statuses[id]; !ok {
		return ErrNotFound
	}
	delete(s.statuses, id)
	s.deleted = append(s.deleted, id)
	s.entries = append(s.entries, entry)
	return nil
}

func adminDe(tenant uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenant}
}

func TestCreateNomeDuplicadoMesmaImobiliaria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	tenant := uuid.New()
	admin := adminDe(tenant)

	if _, err := svc.Create(context.Background(), admin, CreateInput{Nome: "Novo", Cor: "#00AA00"}, audit.Meta{}); err != nil {
		t.Fatalf("primeira criação: %v", err)
	}

	// Mesmo nome com caixa diferente precisa ser recusado.
	_, err := svc.Create(context.Background(), admin, CreateInput{Nome: "  novo "}, audit.Meta{})
	if !errors.Is(err, ErrNomeDuplicado) {
		t.Fatalf("esperado ErrNomeDuplicado, obtido %v", err)
	}
}

func TestCreateMesmoNomeEmImobiliariasDiferentes(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	if _, err := svc.Create(context.Background(), adminDe(uuid.New()), CreateInput{Nome: "Convertido"}, audit.Meta{}); err != nil {
		t.Fatalf("imobiliária A: %v", err)
	}
	if _, err := svc.Create(context.Background(), adminDe(uuid.New()), CreateInput{Nome: "Convertido"}, audit.Meta{}); err != nil {
		t.Fatalf("imobiliária B: %v", err)
	}
}

func TestDeleteStatusReferenciado(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	tenant := uuid.New()
	admin := adminDe(tenant)

	st, err := svc.Create(context.Background(), admin, CreateInput{Nome: "Em negociação"}, audit.Meta{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.leadCount[st.ID] = 3

	if err := svc.Delete(context.Background(), admin, st.ID, audit.Meta{}); !errors.Is(err, ErrEmUso) {
		t.Fatalf("esperado ErrEmUso, obtido %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("status removido apesar de referenciado")
	}
}

func TestDeleteStatusSemReferencias(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	tenant := uuid.New()
	admin := adminDe(tenant)

	st, err := svc.Create(context.Background(), admin, CreateInput{Nome: "Descartado"}, audit.Meta{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), admin, st.ID, audit.Meta{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("delete não aplicado")
	}
}

func TestUpdateNaoConflitaComProprioNome(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)
	tenant := uuid.New()
	admin := adminDe(tenant)

	st, err := svc.Create(context.Background(), admin, CreateInput{Nome: "Novo"}, audit.Meta{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	nome := "NOVO"
	if _, err := svc.Update(context.Background(), admin, st.ID, UpdateInput{Nome: &nome}, audit.Meta{}); err != nil {
		t.Fatalf("renomear para o próprio nome deveria passar: %v", err)
	}
}

func TestAdminNaoMexeEmOutraImobiliaria(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	stA, err := svc.Create(context.Background(), adminDe(uuid.New()), CreateInput{Nome: "Novo"}, audit.Meta{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	outro := adminDe(uuid.New())
	if _, err := svc.Get(context.Background(), outro, stA.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Get cross-tenant: esperado ErrForbidden, obtido %v", err)
	}
	if err := svc.Delete(context.Background(), outro, stA.ID, audit.Meta{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete cross-tenant: esperado ErrForbidden, obtido %v", err)
	}
}

func TestCorretorListaSomenteProprioFunil(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	tenantA := uuid.New()
	tenantB := uuid.New()
	if _, err := svc.Create(context.Background(), adminDe(tenantA), CreateInput{Nome: "Novo"}, audit.Meta{}); err != nil {
		t.Fatalf("Create A: %v", err)
	}
	if _, err := svc.Create(context.Background(), adminDe(tenantB), CreateInput{Nome: "Visita"}, audit.Meta{}); err != nil {
		t.Fatalf("Create B: %v", err)
	}

	corretor := authz.Principal{UserID: uuid.New(), Role: authz.RoleCorretor, TenantID: &tenantA}
	lista, err := svc.List(context.Background(), corretor, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lista) != 1 || lista[0].TenantID != tenantA {
		t.Fatalf("lista vazou status de outra imobiliária: %+v", lista)
	}

	super := authz.Principal{UserID: uuid.New(), Role: authz.RoleSuperAdmin}
	tudo, err := svc.List(context.Background(), super, nil)
	if err != nil {
		t.Fatalf("List super: %v", err)
	}
	if len(tudo) != 2 {
		t.Fatalf("super deveria ver os dois funis, viu %d", len(tudo))
	}
}
