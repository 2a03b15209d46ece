package imobiliaria

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/util"
)

// ErrValidation embrulha falhas de entrada deste módulo.
var ErrValidation = errors.New("dados inválidos")

// Service contém as regras de cadastro do diretório de imobiliárias.
type Service struct {
	repo *Repository
}

// NewService cria uma nova instância de Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create registra uma nova imobiliária. Somente papéis globais.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateInput, meta audit.Meta) (*Imobiliaria, error) {
	if !p.IsSuper() {
		return nil, ErrForbidden
	}
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, errors.Join(ErrValidation, err)
		}
	}

	return s.repo.Create(ctx, input, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "Imobiliaria",
		Descricao:   "imobiliária cadastrada",
		NewState:    map[string]any{"nome": strings.TrimSpace(input.Nome)},
		ActorUserID: p.UserID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// Get devolve a imobiliária visível ao principal: papéis globais enxergam
// qualquer uma; os demais somente a própria.
func (s *Service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*Imobiliaria, error) {
	if !p.IsSuper() {
		if p.TenantID == nil || *p.TenantID != id {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByID(ctx, id)
}

// List devolve todas as imobiliárias. Somente papéis globais.
func (s *Service) List(ctx context.Context, p authz.Principal, onlyActive bool) ([]Imobiliaria, error) {
	if !p.IsSuper() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, onlyActive)
}

// Update altera dados cadastrais. Papéis globais alteram qualquer uma; ADMIN
// somente a própria.
func (s *Service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateInput, meta audit.Meta) (*Imobiliaria, error) {
	if !s.canManage(p, id) {
		return nil, ErrForbidden
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, errors.Join(ErrValidation, err)
		}
	}

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, input, audit.Entry{
		Action:      audit.ActionUpdate,
		EntityType:  "Imobiliaria",
		EntityID:    id,
		Descricao:   "imobiliária atualizada",
		OldState:    map[string]any{"nome": before.Nome},
		ActorUserID: p.UserID,
		TenantID:    &id,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// Deactivate desliga a imobiliária sem remover registros. Somente papéis
// globais.
func (s *Service) Deactivate(ctx context.Context, p authz.Principal, id uuid.UUID, meta audit.Meta) error {
	if !p.IsSuper() {
		return ErrForbidden
	}

	return s.repo.SetAtiva(ctx, id, false, audit.Entry{
		Action:      audit.ActionDelete,
		EntityType:  "Imobiliaria",
		EntityID:    id,
		Descricao:   "imobiliária desativada",
		ActorUserID: p.UserID,
		TenantID:    &id,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

func (s *Service) canManage(p authz.Principal, id uuid.UUID) bool {
	if p.IsSuper() {
		return true
	}
	return p.Role == authz.RoleAdmin && p.TenantID != nil && *p.TenantID == id
}
