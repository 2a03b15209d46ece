package lead

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/metrics"
	"github.com/imobilead/api/internal/notify"
	"github.com/imobilead/api/internal/status"
	"github.com/imobilead/api/internal/storage"
	"github.com/imobilead/api/internal/usuario"
	"github.com/imobilead/api/internal/util"
)

// Store define o acesso a dados exigido pelo serviço de leads.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, f Filter, page, pageSize int) ([]Lead, int64, error)
	Create(ctx context.Context, tenantID, ownerID uuid.UUID, input CreateInput, entry audit.Entry) (*Lead, error)
	ApplyChange(ctx context.Context, leadID uuid.UUID, change ChangeSet, entry audit.Entry) (*ChangeResult, error)
	ListObservacoes(ctx context.Context, leadID uuid.UUID) ([]Observacao, error)
	InsertDocumento(ctx context.Context, doc Documento, entry audit.Entry) (*Documento, error)
	ListDocumentos(ctx context.Context, leadID uuid.UUID) ([]Documento, error)
}

// StatusCatalog resolve etapas do catálogo por identificador.
type StatusCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*status.StatusCustom, error)
}

// CorretorDirectory resolve corretores para atribuição e notificação.
type CorretorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error)
	FindCorretorDisponivel(ctx context.Context, tenantID uuid.UUID) (*usuario.Usuario, error)
}

// Service implementa o ciclo de vida do lead.
type Service struct {
	store      Store
	statuses   StatusCatalog
	corretores CorretorDirectory
	notifier   notify.Notifier
	uploader   storage.Uploader
}

func NewService(store Store, statuses StatusCatalog, corretores CorretorDirectory, notifier notify.Notifier, uploader storage.Uploader) *Service {
	return &Service{
		store:      store,
		statuses:   statuses,
		corretores: corretores,
		notifier:   notifier,
		uploader:   uploader,
	}
}

// List pagina leads visíveis ao principal. CORRETOR enxerga só os seus;
// ADMIN, os da imobiliária; SUPER_ADMIN/ADMFULL, qualquer filtro.
func (s *Service) List(ctx context.Context, p authz.Principal, f Filter, page, pageSize int) ([]Lead, int64, error) {
	switch {
	case p.IsSuper():
		// filtro livre
	case p.Role == authz.RoleAdmin:
		if p.TenantID == nil {
			return nil, 0, ErrForbidden
		}
		f.TenantID = p.TenantID
	case p.Role == authz.RoleCorretor:
		f.OwnerUserID = &p.UserID
		f.TenantID = p.TenantID
	default:
		return nil, 0, ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return s.store.List(ctx, f, page, pageSize)
}

// Get carrega um lead após checar a política de acesso.
func (s *Service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*Lead, error) {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, authz.LeadRef{TenantID: l.TenantID, OwnerID: l.OwnerUserID}).Read {
		return nil, ErrForbidden
	}
	return l, nil
}

// Create registra um lead. CORRETOR cria para si; ADMIN cria na própria
// imobiliária (sem corretor informado, distribui automaticamente);
// SUPER_ADMIN/ADMFULL informam imobiliária e corretor explícitos.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateInput, meta audit.Meta) (*Lead, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	var (
		tenantID uuid.UUID
		ownerID  uuid.UUID
	)

	switch {
	case p.Role == authz.RoleCorretor:
		if p.TenantID == nil {
			return nil, ErrForbidden
		}
		tenantID = *p.TenantID
		ownerID = p.UserID
	case p.Role == authz.RoleAdmin:
		if p.TenantID == nil {
			return nil, ErrForbidden
		}
		tenantID = *p.TenantID
		if input.OwnerUserID != nil {
			ownerID = *input.OwnerUserID
		} else {
			corretor, err := s.corretores.FindCorretorDisponivel(ctx, tenantID)
			if err != nil {
				return nil, errors.Join(ErrValidation, errors.New("nenhum corretor disponível"))
			}
			ownerID = corretor.ID
		}
	case p.IsSuper():
		if input.TenantID == nil || input.OwnerUserID == nil {
			return nil, errors.Join(ErrValidation, errors.New("imobiliária e corretor obrigatórios"))
		}
		tenantID = *input.TenantID
		ownerID = *input.OwnerUserID
	default:
		return nil, ErrForbidden
	}

	if err := s.checkOwner(ctx, tenantID, ownerID); err != nil {
		return nil, err
	}
	if err := s.checkInitialStatus(ctx, tenantID, input.StatusID); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, tenantID, ownerID, input, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "Lead",
		Descricao:   "lead cadastrado",
		NewState:    map[string]any{"nome": input.Nome, "origem": input.Origem},
		ActorUserID: p.UserID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	metrics.LeadsCreatedTotal.WithLabelValues(created.Origem).Inc()
	if ownerID != p.UserID {
		s.notifyAssignment(created)
	}
	return created, nil
}

// CreatePublic registra um lead vindo do formulário de captura, sem sessão.
// O corretor com menos leads da imobiliária recebe a atribuição e a
// notificação; a linha de auditoria usa esse corretor como ator.
func (s *Service) CreatePublic(ctx context.Context, tenantID uuid.UUID, input CaptureInput, meta audit.Meta) (*Lead, error) {
	origem := input.Origem
	if origem == "" {
		origem = "SITE"
	}

	createInput := CreateInput{
		Nome:      input.Nome,
		Email:     input.Email,
		Telefone:  input.Telefone,
		Origem:    origem,
		Interesse: input.Interesse,
	}
	if err := validateCreate(&createInput); err != nil {
		return nil, err
	}

	corretor, err := s.corretores.FindCorretorDisponivel(ctx, tenantID)
	if err != nil {
		return nil, errors.Join(ErrValidation, errors.New("imobiliária sem corretor disponível"))
	}

	created, err := s.store.Create(ctx, tenantID, corretor.ID, createInput, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "Lead",
		Descricao:   "lead captado via formulário público",
		NewState:    map[string]any{"nome": createInput.Nome, "origem": origem},
		ActorUserID: corretor.ID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	metrics.LeadsCreatedTotal.WithLabelValues(origem).Inc()
	s.notifyAssignment(created)
	return created, nil
}

// ApplyChange muda a etapa e/ou anexa uma observação ao lead. A etapa nova
// deve pertencer à mesma imobiliária do lead e estar ativa.
func (s *Service) ApplyChange(ctx context.Context, p authz.Principal, leadID uuid.UUID, input ChangeInput, meta audit.Meta) (*Lead, error) {
	l, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, authz.LeadRef{TenantID: l.TenantID, OwnerID: l.OwnerUserID}).Write {
		return nil, ErrForbidden
	}

	// etapa igual à corrente não passa pelo catálogo: reenviar o status
	// atual continua aceito mesmo que a etapa tenha sido desativada depois
	mesmaEtapa := input.StatusID != nil && l.StatusID != nil && *input.StatusID == *l.StatusID
	if input.StatusID != nil && !mesmaEtapa {
		st, err := s.statuses.GetByID(ctx, *input.StatusID)
		if err != nil {
			return nil, errors.Join(ErrValidation, errors.New("etapa desconhecida"))
		}
		if st.TenantID != l.TenantID {
			return nil, errors.Join(ErrValidation, errors.New("etapa pertence a outra imobiliária"))
		}
		if !st.Ativo {
			return nil, errors.Join(ErrValidation, errors.New("etapa desativada"))
		}
	}

	result, err := s.store.ApplyChange(ctx, leadID, ChangeSet{
		NewStatusID: input.StatusID,
		Observacao:  input.Observacao,
		AutorID:     p.UserID,
	}, audit.Entry{
		Action:      audit.ActionUpdate,
		EntityType:  "Lead",
		EntityID:    leadID,
		Descricao:   "lead atualizado",
		ActorUserID: p.UserID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	if result.StatusAlterado {
		metrics.StatusChangesTotal.Inc()
	}
	return result.Lead, nil
}

// ListObservacoes devolve o histórico do lead para quem pode lê-lo.
func (s *Service) ListObservacoes(ctx context.Context, p authz.Principal, leadID uuid.UUID) ([]Observacao, error) {
	l, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, authz.LeadRef{TenantID: l.TenantID, OwnerID: l.OwnerUserID}).Read {
		return nil, ErrForbidden
	}
	return s.store.ListObservacoes(ctx, leadID)
}

// DocumentInput descreve um arquivo a anexar.
type DocumentInput struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AddDocumento sobe o arquivo para o storage e grava os metadados.
func (s *Service) AddDocumento(ctx context.Context, p authz.Principal, leadID uuid.UUID, input DocumentInput, meta audit.Meta) (*Documento, error) {
	l, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, authz.LeadRef{TenantID: l.TenantID, OwnerID: l.OwnerUserID}).Write {
		return nil, ErrForbidden
	}

	if len(input.Body) == 0 {
		return nil, errors.Join(ErrValidation, errors.New("arquivo vazio"))
	}
	if len(input.Body) > storage.MaxDocumentSize {
		return nil, errors.Join(ErrValidation, errors.New("arquivo excede o limite de 10MB"))
	}
	if !storage.AllowedDocumentType(input.ContentType) {
		return nil, errors.Join(ErrValidation, errors.New("tipo de arquivo não suportado"))
	}

	key := storage.DocumentKey(l.TenantID, l.ID, input.Filename)
	uploaded, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        input.Body,
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, err
	}

	return s.store.InsertDocumento(ctx, Documento{
		LeadID:      leadID,
		Nome:        input.Filename,
		ContentType: input.ContentType,
		Tamanho:     int64(len(input.Body)),
		URL:         uploaded.URL,
		ChaveObjeto: key,
		EnviadoPor:  p.UserID,
	}, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  "LeadDocumento",
		Descricao:   "documento anexado ao lead",
		NewState:    map[string]any{"lead_id": leadID, "nome": input.Filename},
		ActorUserID: p.UserID,
		TenantID:    &l.TenantID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
}

// ListDocumentos devolve os anexos do lead para quem pode lê-lo.
func (s *Service) ListDocumentos(ctx context.Context, p authz.Principal, leadID uuid.UUID) ([]Documento, error) {
	l, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, authz.LeadRef{TenantID: l.TenantID, OwnerID: l.OwnerUserID}).Read {
		return nil, ErrForbidden
	}
	return s.store.ListDocumentos(ctx, leadID)
}

// notifyAssignment avisa o corretor em segundo plano; falha de gateway não
// bloqueia nem desfaz o cadastro do lead.
func (s *Service) notifyAssignment(l *Lead) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		corretor, err := s.corretores.GetByID(ctx, l.OwnerUserID)
		if err != nil || corretor.Telefone == nil {
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			return
		}

		err = s.notifier.NotifyNewLead(ctx, notify.LeadMessage{
			CorretorTelefone: *corretor.Telefone,
			LeadNome:         l.Nome,
			LeadTelefone:     l.Telefone,
			Origem:           l.Origem,
		})
		if err != nil {
			metrics.NotificationsTotal.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("lead_id", l.ID.String()).Msg("falha ao notificar corretor")
			return
		}
		metrics.NotificationsTotal.WithLabelValues("ok").Inc()
	}()
}

func (s *Service) checkOwner(ctx context.Context, tenantID, ownerID uuid.UUID) error {
	corretor, err := s.corretores.GetByID(ctx, ownerID)
	if err != nil {
		return errors.Join(ErrValidation, errors.New("corretor desconhecido"))
	}
	if corretor.TenantID == nil || *corretor.TenantID != tenantID {
		return errors.Join(ErrValidation, errors.New("corretor não pertence à imobiliária"))
	}
	if corretor.Status != usuario.StatusAtivo {
		return errors.Join(ErrValidation, errors.New("corretor inativo"))
	}
	return nil
}

func (s *Service) checkInitialStatus(ctx context.Context, tenantID uuid.UUID, statusID *uuid.UUID) error {
	if statusID == nil {
		return nil
	}
	st, err := s.statuses.GetByID(ctx, *statusID)
	if err != nil {
		return errors.Join(ErrValidation, errors.New("etapa desconhecida"))
	}
	if st.TenantID != tenantID {
		return errors.Join(ErrValidation, errors.New("etapa pertence a outra imobiliária"))
	}
	if !st.Ativo {
		return errors.Join(ErrValidation, errors.New("etapa desativada"))
	}
	return nil
}

func validateCreate(input *CreateInput) error {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return errors.Join(ErrValidation, err)
	}
	normalized, err := util.NormalizePhone(input.Telefone)
	if err != nil {
		return errors.Join(ErrValidation, err)
	}
	input.Telefone = normalized
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return errors.Join(ErrValidation, err)
		}
	}
	if input.Origem == "" {
		input.Origem = "MANUAL"
	}
	return nil
}
