package usuario

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/auth"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error)
	GetByEmail(ctx context.Context, email string) (*Usuario, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]Usuario, error)
	Create(ctx context.Context, input CreateInput, senhaHash string, entry audit.Entry) (*Usuario, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*Usuario, error)
}

// Service contém as regras de gestão de usuários.
type Service struct {
	store Store
}

// NewService cria uma nova instância de Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create cadastra um usuário respeitando o escopo do principal: ADMIN só
// cria CORRETOR na própria imobiliária; papéis globais criam qualquer um.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateInput, meta audit.Meta) (*Usuario, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	switch {
	case p.IsSuper():
		// sem restrição de alvo
	case p.Role == authz.RoleAdmin:
		if input.Role != authz.RoleCorretor || p.TenantID == nil {
			return nil, ErrForbidden
		}
		input.TenantID = p.TenantID
	default:
		return nil, ErrForbidden
	}

	if err := requireTenantForRole(input.Role, input.TenantID); err != nil {
		return nil, err
	}

	senhaHash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	return s.store.Create(ctx, input, senhaHash, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "Usuario",
		Descricao:   "usuário cadastrado",
		NewState:    map[string]any{"role": input.Role},
		ActorUserID: p.UserID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// Get devolve o usuário visível ao principal.
func (s *Service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*Usuario, error) {
	target, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(p, target) {
		return nil, ErrForbidden
	}
	return target, nil
}

// List devolve usuários do escopo do principal. ADMIN enxerga a própria
// imobiliária; papéis globais podem filtrar ou ver todos.
func (s *Service) List(ctx context.Context, p authz.Principal, tenantFilter *uuid.UUID) ([]Usuario, error) {
	switch {
	case p.IsSuper():
		return s.store.List(ctx, tenantFilter)
	case p.Role == authz.RoleAdmin:
		if p.TenantID == nil {
			return nil, ErrForbidden
		}
		return s.store.List(ctx, p.TenantID)
	}
	return nil, ErrForbidden
}

// Update altera um usuário. ADMIN só altera CORRETOR da própria imobiliária.
func (s *Service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateInput, meta audit.Meta) (*Usuario, error) {
	target, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(p, target) {
		return nil, ErrForbidden
	}

	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, errors.Join(ErrValidation, err)
		}
	}
	if input.Status != nil && *input.Status != StatusAtivo && *input.Status != StatusInativo {
		return nil, errors.Join(ErrValidation, errors.New("status desconhecido"))
	}

	return s.store.Update(ctx, id, input, audit.Entry{
		Action:       audit.ActionUpdate,
		EntityType:   "Usuario",
		EntityID:     id,
		Descricao:    "usuário atualizado",
		OldState:     map[string]any{"nome": target.Nome, "email": target.Email, "status": target.Status},
		ActorUserID:  p.UserID,
		TargetUserID: &id,
		TenantID:     target.TenantID,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	})
}

func (s *Service) canView(p authz.Principal, target *Usuario) bool {
	if p.IsSuper() {
		return true
	}
	if p.UserID == target.ID {
		return true
	}
	if p.Role == authz.RoleAdmin && p.TenantID != nil && target.TenantID != nil {
		return *p.TenantID == *target.TenantID
	}
	return false
}

func (s *Service) canManage(p authz.Principal, target *Usuario) bool {
	if p.IsSuper() {
		return true
	}
	if p.Role != authz.RoleAdmin || p.TenantID == nil {
		return false
	}
	return target.Role == authz.RoleCorretor && target.TenantID != nil && *target.TenantID == *p.TenantID
}

func validateCreate(input CreateInput) error {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if !authz.ValidRole(input.Role) {
		return errors.Join(ErrValidation, errors.New("papel desconhecido"))
	}
	if input.Telefone != nil {
		if _, err := util.NormalizePhone(*input.Telefone); err != nil {
			return errors.Join(ErrValidation, err)
		}
	}
	return nil
}

func requireTenantForRole(role string, tenantID *uuid.UUID) error {
	switch role {
	case authz.RoleCorretor, authz.RoleAdmin:
		if tenantID == nil {
			return errors.Join(ErrValidation, errors.New("imobiliária obrigatória para este papel"))
		}
	}
	return nil
}
