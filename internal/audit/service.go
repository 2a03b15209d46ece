package audit

import (
	"context"

	"github.com/imobilead/api/internal/authz"
)

type queryRepository interface {
	Query(ctx context.Context, f Filter, page, pageSize int) ([]Log, int64, error)
}

// Service aplica o gate de leitura da trilha: somente ADMIN ou papel superior.
type Service struct {
	repo queryRepository
}

// NewService cria o serviço de consulta.
func NewService(repo queryRepository) *Service {
	return &Service{repo: repo}
}

// List devolve entradas visíveis ao principal. ADMIN fica restrito à própria
// imobiliária diretamente no predicado SQL; SUPER_ADMIN e ADMFULL enxergam
// tudo e podem filtrar por imobiliária específica.
func (s *Service) List(ctx context.Context, p authz.Principal, f Filter, page, pageSize int) ([]Log, int64, error) {
	if !p.IsAdminOrAbove() {
		return nil, 0, ErrForbidden
	}

	if !p.IsSuper() {
		if p.TenantID == nil {
			return nil, 0, ErrForbidden
		}
		f.TenantID = p.TenantID
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return s.repo.Query(ctx, f, page, pageSize)
}
