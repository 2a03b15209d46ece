package status

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StatusCustom, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]StatusCustom, error)
	ExistsByNome(ctx context.Context, tenantID uuid.UUID, nome string, exclude *uuid.UUID) (bool, error)
	CountLeads(ctx context.Context, statusID uuid.UUID) (int64, error)
	Insert(ctx context.Context, tenantID uuid.UUID, nome, cor, descricao string, entry audit.Entry) (*StatusCustom, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*StatusCustom, error)
	Delete(ctx context.Context, id uuid.UUID, entry audit.Entry) error
}

// Service contém as regras do catálogo de status.
type Service struct {
	store Store
}

// NewService cria uma nova instância de Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registra uma etapa do funil. ADMIN cria na própria imobiliária;
// papéis globais precisam informar a imobiliária alvo.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateInput, meta audit.Meta) (*StatusCustom, error) {
	tenantID, err := s.resolveTenant(p, input.TenantID)
	if err != nil {
		return nil, err
	}
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	exists, err := s.store.ExistsByNome(ctx, tenantID, input.Nome, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNomeDuplicado
	}

	return s.store.Insert(ctx, tenantID, input.Nome, input.Cor, input.Descricao, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "StatusCustom",
		Descricao:   "status criado",
		NewState:    map[string]any{"nome": input.Nome, "cor": input.Cor},
		ActorUserID: p.UserID,
		TenantID:    &tenantID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// Get devolve o status visível ao principal.
func (s *Service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*StatusCustom, error) {
	st, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.sameTenantOrSuper(p, st.TenantID) {
		return nil, ErrForbidden
	}
	return st, nil
}

// List devolve o catálogo do escopo do principal. Papéis de imobiliária
// enxergam o próprio funil; papéis globais podem filtrar ou omitir o filtro
// para ver todos.
func (s *Service) List(ctx context.Context, p authz.Principal, tenantFilter *uuid.UUID) ([]StatusCustom, error) {
	if p.IsSuper() {
		return s.store.List(ctx, tenantFilter)
	}
	if p.TenantID == nil {
		return nil, ErrForbidden
	}
	return s.store.List(ctx, p.TenantID)
}

// Update altera a etapa, mantendo a checagem de nome duplicado (excluindo o
// próprio registro).
func (s *Service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateInput, meta audit.Meta) (*StatusCustom, error) {
	if !p.IsAdminOrAbove() {
		return nil, ErrForbidden
	}

	before, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.sameTenantOrSuper(p, before.TenantID) {
		return nil, ErrForbidden
	}

	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return nil, errors.Join(ErrValidation, err)
		}
		exists, err := s.store.ExistsByNome(ctx, before.TenantID, *input.Nome, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrNomeDuplicado
		}
	}

	return s.store.Update(ctx, id, input, audit.Entry{
		Action:      audit.ActionUpdate,
		EntityType:  "StatusCustom",
		EntityID:    id,
		Descricao:   "status atualizado",
		OldState:    map[string]any{"nome": before.Nome, "cor": before.Cor, "ativo": before.Ativo},
		ActorUserID: p.UserID,
		TenantID:    &before.TenantID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// Delete remove a etapa; recusa com ErrEmUso enquanto houver lead nela.
func (s *Service) Delete(ctx context.Context, p authz.Principal, id uuid.UUID, meta audit.Meta) error {
	if !p.IsAdminOrAbove() {
		return ErrForbidden
	}

	st, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.sameTenantOrSuper(p, st.TenantID) {
		return ErrForbidden
	}

	count, err := s.store.CountLeads(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrEmUso
	}

	return s.store.Delete(ctx, id, audit.Entry{
		Action:      audit.ActionDelete,
		EntityType:  "StatusCustom",
		EntityID:    id,
		Descricao:   "status removido",
		OldState:    map[string]any{"nome": st.Nome},
		ActorUserID: p.UserID,
		TenantID:    &st.TenantID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

func (s *Service) resolveTenant(p authz.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case p.IsSuper():
		if requested == nil {
			return uuid.Nil, errors.Join(ErrValidation, errors.New("imobiliária obrigatória"))
		}
		return *requested, nil
	case p.Role == authz.RoleAdmin:
		if p.TenantID == nil {
			return uuid.Nil, ErrForbidden
		}
		return *p.TenantID, nil
	}
	return uuid.Nil, ErrForbidden
}

func (s *Service) sameTenantOrSuper(p authz.Principal, tenantID uuid.UUID) bool {
	if p.IsSuper() {
		return true
	}
	return p.TenantID != nil && *p.TenantID == tenantID
}
