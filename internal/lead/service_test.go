package lead

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/notify"
	"github.com/imobilead/api/internal/status"
	"github.com/imobilead/api/internal/storage"
	"github.com/imobilead/api/internal/usuario"
)

type stubStore struct {
	leads       map[uuid.UUID]*Lead
	observacoes map[uuid.UUID][]Observacao
	documentos  map[uuid.UUID][]Documento
	entries     []audit.Entry
}

func newStubStore() *stubStore {
	return &stubStore{
		leads:       map[uuid.UUID]*Lead{},
		observacoes: map[uuid.UUID][]Observacao{},
		documentos:  map[uuid.UUID][]Documento{},
	}
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	copia := *l
	return &copia, nil
}

func (s *stubStore) List(ctx context.Context, f Filter, page, pageSize int) ([]Lead, int64, error) {
	var result []Lead
	for _, l := range s.leads {
		if f.TenantID != nil && l.TenantID != *f.TenantID {
			continue
		}
		if f.OwnerUserID != nil && l.OwnerUserID != *f.OwnerUserID {
			continue
		}
		result = append(result, *l)
	}
	return result, int64(len(result)), nil
}

func (s *stubStore) Create(ctx context.Context, tenantID, ownerID uuid.UUID, input CreateInput, entry audit.Entry) (*Lead, error) {
	l := &Lead{
		ID:          uuid.New(),
		TenantID:    tenantID,
		OwnerUserID: ownerID,
		Nome:        input.Nome,
		Email:       input.Email,
		Telefone:    input.Telefone,
		Origem:      input.Origem,
		StatusID:    input.StatusID,
	}
	s.leads[l.ID] = l
	entry.EntityID = l.ID
	entry.TenantID = &tenantID
	s.entries = append(s.entries, entry)
	return l, nil
}

// ApplyChange reproduz o contrato transacional do repositório: sem mudança
// de etapa e sem nota, nada é gravado.
func (s *stubStore) ApplyChange(ctx context.Context, leadID uuid.UUID, change ChangeSet, entry audit.Entry) (*ChangeResult, error) {
	l, ok := s.leads[leadID]
	if !ok {
		return nil, ErrNotFound
	}

	statusMudou := change.NewStatusID != nil &&
		(l.StatusID == nil || *change.NewStatusID != *l.StatusID)
	texto := strings.TrimSpace(change.Observacao)

	if !statusMudou && texto == "" {
		copia := *l
		return &ChangeResult{Lead: &copia, NoOp: true}, nil
	}

	obs := Observacao{ID: uuid.New(), LeadID: leadID, AutorID: change.AutorID, Texto: texto}
	if statusMudou {
		obs.Tipo = TipoMudancaStatus
		obs.StatusAnteriorID = l.StatusID
		obs.StatusNovoID = change.NewStatusID
		l.StatusID = change.NewStatusID
	} else {
		obs.Tipo = TipoObservacao
	}
	s.observacoes[leadID] = append(s.observacoes[leadID], obs)

	entry.EntityID = leadID
	entry.TenantID = &l.TenantID
	s.entries = append(s.entries, entry)

	copia := *l
	return &ChangeResult{Lead: &copia, StatusAlterado: statusMudou}, nil
}

func (s *stubStore) ListObservacoes(ctx context.Context, leadID uuid.UUID) ([]Observacao, error) {
	return s.observacoes[leadID], nil
}

func (s *stubStore) InsertDocumento(ctx context.Context, doc Documento, entry audit.Entry) (*Documento, error) {
	doc.ID = uuid.New()
	s.documentos[doc.LeadID] = append(s.documentos[doc.LeadID], doc)
	s.entries = append(s.entries, entry)
	return &doc, nil
}

func (s *stubStore) ListDocumentos(ctx context.Context, leadID uuid.UUID) ([]Documento, error) {
	return s.documentos[leadID], nil
}

type stubCatalog struct {
	statuses map[uuid.UUID]*status.StatusCustom
}

func (s *stubCatalog) GetByID(ctx context.Context, id uuid.UUID) (*status.StatusCustom, error) {
	st, ok := s.statuses[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return st, nil
}

type stubDirectory struct {
	usuarios   map[uuid.UUID]*usuario.Usuario
	disponivel *usuario.Usuario
}

func (s *stubDirectory) GetByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return nil, usuario.ErrNotFound
	}
	return u, nil
}

func (s *stubDirectory) FindCorretorDisponivel(ctx context.Context, tenantID uuid.UUID) (*usuario.Usuario, error) {
	if s.disponivel == nil {
		return nil, usuario.ErrNotFound
	}
	return s.disponivel, nil
}

type stubNotifier struct {
	mu        sync.Mutex
	mensagens []notify.LeadMessage
	done      chan struct{}
}

func (s *stubNotifier) NotifyNewLead(ctx context.Context, msg notify.LeadMessage) error {
	s.mu.Lock()
	s.mensagens = append(s.mensagens, msg)
	s.mu.Unlock()
	if s.done != nil {
		close(s.done)
	}
	return nil
}

type fixture struct {
	store     *stubStore
	catalog   *stubCatalog
	directory *stubDirectory
	svc       *Service

	tenantA uuid.UUID
	tenantB uuid.UUID

	corretorA *usuario.Usuario
	corretorB *usuario.Usuario

	etapaNova    *status.StatusCustom
	etapaVisita  *status.StatusCustom
	etapaOutra   *status.StatusCustom
	etapaInativa *status.StatusCustom
}

func newFixture() *fixture {
	f := &fixture{
		store:   newStubStore(),
		tenantA: uuid.New(),
		tenantB: uuid.New(),
	}

	tel := "11999990000"
	f.corretorA = &usuario.Usuario{ID: uuid.New(), Nome: "Ana", Telefone: &tel, Role: authz.RoleCorretor, Status: usuario.StatusAtivo, TenantID: &f.tenantA}
	f.corretorB = &usuario.Usuario{ID: uuid.New(), Nome: "Bruno", Role: authz.RoleCorretor, Status: usuario.StatusAtivo, TenantID: &f.tenantA}

	f.etapaNova = &status.StatusCustom{ID: uuid.New(), TenantID: f.tenantA, Nome: "Novo", Ativo: true}
	f.etapaVisita = &status.StatusCustom{ID: uuid.New(), TenantID: f.tenantA, Nome: "Visita agendada", Ativo: true}
	f.etapaOutra = &status.StatusCustom{ID: uuid.New(), TenantID: f.tenantB, Nome: "Novo", Ativo: true}
	f.etapaInativa = &status.StatusCustom{ID: uuid.New(), TenantID: f.tenantA, Nome: "Arquivado", Ativo: false}

	f.catalog = &stubCatalog{statuses: map[uuid.UUID]*status.StatusCustom{
		f.etapaNova.ID:    f.etapaNova,
		f.etapaVisita.ID:  f.etapaVisita,
		f.etapaOutra.ID:   f.etapaOutra,
		f.etapaInativa.ID: f.etapaInativa,
	}}
	f.directory = &stubDirectory{
		usuarios: map[uuid.UUID]*usuario.Usuario{
			f.corretorA.ID: f.corretorA,
			f.corretorB.ID: f.corretorB,
		},
		disponivel: f.corretorA,
	}

	f.svc = NewService(f.store, f.catalog, f.directory, nil, storage.NoopUploader{})
	return f
}

func (f *fixture) principalCorretorA() authz.Principal {
	return authz.Principal{UserID: f.corretorA.ID, Role: authz.RoleCorretor, TenantID: &f.tenantA}
}

func (f *fixture) seedLead(statusID *uuid.UUID) *Lead {
	l := &Lead{
		ID:          uuid.New(),
		TenantID:    f.tenantA,
		OwnerUserID: f.corretorA.ID,
		Nome:        "Carlos Pereira",
		Telefone:    "11988887777",
		Origem:      "MANUAL",
		StatusID:    statusID,
	}
	f.store.leads[l.ID] = l
	return l
}

func TestCreateCorretorAssumeProprioLead(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), f.principalCorretorA(), CreateInput{
		Nome:     "Carlos Pereira",
		Telefone: "(11) 98888-7777",
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if created.OwnerUserID != f.corretorA.ID {
		t.Fatalf("lead deveria pertencer ao corretor criador")
	}
	if created.TenantID != f.tenantA {
		t.Fatalf("lead deveria pertencer à imobiliária do corretor")
	}
	if created.Telefone != "11988887777" {
		t.Fatalf("telefone deveria ser normalizado, veio %q", created.Telefone)
	}
	if len(f.store.entries) != 1 || f.store.entries[0].Action != audit.ActionCreate {
		t.Fatalf("criação deveria gerar exatamente uma linha de auditoria CREATE")
	}
}

func TestCreateAdminDistribuiParaCorretorDisponivel(t *testing.T) {
	f := newFixture()
	admin := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &f.tenantA}

	created, err := f.svc.Create(context.Background(), admin, CreateInput{
		Nome:     "Daniela Lima",
		Telefone: "11977776666",
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if created.OwnerUserID != f.corretorA.ID {
		t.Fatalf("lead deveria ir para o corretor disponível")
	}
}

func TestCreateSuperExigeImobiliariaECorretor(t *testing.T) {
	f := newFixture()
	super := authz.Principal{UserID: uuid.New(), Role: authz.RoleSuperAdmin}

	_, err := f.svc.Create(context.Background(), super, CreateInput{
		Nome:     "Eduardo Ramos",
		Telefone: "11966665555",
	}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("esperava ErrValidation, veio %v", err)
	}
}

func TestCreateSemTelefoneRejeitado(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.principalCorretorA(), CreateInput{Nome: "Sem Contato"}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("esperava ErrValidation, veio %v", err)
	}
}

func TestApplyChangeMudancaGeraUmaObservacaoEUmaAuditoria(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)

	_, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID: &f.etapaVisita.ID,
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	obs := f.store.observacoes[l.ID]
	if len(obs) != 1 || obs[0].Tipo != TipoMudancaStatus {
		t.Fatalf("esperava exatamente uma observação MUDANCA_STATUS, veio %+v", obs)
	}
	if len(f.store.entries) != 1 || f.store.entries[0].Action != audit.ActionUpdate {
		t.Fatalf("esperava exatamente uma linha de auditoria UPDATE")
	}
	if f.store.entries[0].TenantID == nil || *f.store.entries[0].TenantID != f.tenantA {
		t.Fatalf("auditoria deveria carregar a imobiliária do lead")
	}
}

func TestApplyChangeMesmaEtapaSemNotaEhNoOp(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)

	updated, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID: &f.etapaNova.ID,
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("no-op deveria ser aceito: %v", err)
	}

	if updated.StatusID == nil || *updated.StatusID != f.etapaNova.ID {
		t.Fatalf("etapa não deveria mudar")
	}
	if len(f.store.observacoes[l.ID]) != 0 {
		t.Fatalf("no-op não deveria gerar observação")
	}
	if len(f.store.entries) != 0 {
		t.Fatalf("no-op não deveria gerar auditoria")
	}
}

func TestApplyChangeNotaSemMudancaGeraObservacaoAvulsa(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)

	_, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID:   &f.etapaNova.ID,
		Observacao: "cliente pediu retorno na sexta",
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	obs := f.store.observacoes[l.ID]
	if len(obs) != 1 || obs[0].Tipo != TipoObservacao {
		t.Fatalf("nota com etapa inalterada deveria virar OBSERVACAO, veio %+v", obs)
	}
	if len(f.store.entries) != 1 || f.store.entries[0].Action != audit.ActionUpdate {
		t.Fatalf("nota avulsa também deveria gerar uma linha de auditoria UPDATE")
	}
}

func TestApplyChangeEtapaCorrenteDesativadaAindaEhNoOp(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaInativa.ID)

	updated, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID: &f.etapaInativa.ID,
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("reenviar a etapa corrente deveria ser aceito como no-op: %v", err)
	}

	if updated.StatusID == nil || *updated.StatusID != f.etapaInativa.ID {
		t.Fatalf("etapa não deveria mudar")
	}
	if len(f.store.observacoes[l.ID]) != 0 || len(f.store.entries) != 0 {
		t.Fatalf("no-op não deveria gravar histórico nem auditoria")
	}
}

func TestApplyChangeEtapaDeOutraImobiliariaRejeitada(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)

	_, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID: &f.etapaOutra.ID,
	}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("esperava ErrValidation para etapa de outra imobiliária, veio %v", err)
	}
	if len(f.store.observacoes[l.ID]) != 0 || len(f.store.entries) != 0 {
		t.Fatalf("rejeição não deveria gravar nada")
	}
}

func TestApplyChangeEtapaInativaRejeitada(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)

	_, err := f.svc.ApplyChange(context.Background(), f.principalCorretorA(), l.ID, ChangeInput{
		StatusID: &f.etapaInativa.ID,
	}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("esperava ErrValidation para etapa inativa, veio %v", err)
	}
}

func TestApplyChangeCorretorDeOutroLeadNegado(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)
	outro := authz.Principal{UserID: f.corretorB.ID, Role: authz.RoleCorretor, TenantID: &f.tenantA}

	_, err := f.svc.ApplyChange(context.Background(), outro, l.ID, ChangeInput{
		StatusID: &f.etapaVisita.ID,
	}, audit.Meta{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("corretor que não é dono deveria ser negado, veio %v", err)
	}
}

func TestGetAdminDeOutraImobiliariaNegado(t *testing.T) {
	f := newFixture()
	l := f.seedLead(nil)
	adminB := authz.Principal{UserID: uuid.New(), Role: authz.RoleAdmin, TenantID: &f.tenantB}

	if _, err := f.svc.Get(context.Background(), adminB, l.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin de outra imobiliária deveria ser negado, veio %v", err)
	}
}

func TestListCorretorEscopadoAoProprio(t *testing.T) {
	f := newFixture()
	f.seedLead(nil)
	alheio := &Lead{ID: uuid.New(), TenantID: f.tenantA, OwnerUserID: f.corretorB.ID, Nome: "Outro", Telefone: "11955554444"}
	f.store.leads[alheio.ID] = alheio

	leads, total, err := f.svc.List(context.Background(), f.principalCorretorA(), Filter{}, 1, 20)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if total != 1 || len(leads) != 1 || leads[0].OwnerUserID != f.corretorA.ID {
		t.Fatalf("corretor deveria enxergar somente os próprios leads")
	}
}

func TestCreatePublicAtribuiENotifica(t *testing.T) {
	f := newFixture()
	notifier := &stubNotifier{done: make(chan struct{})}
	f.svc = NewService(f.store, f.catalog, f.directory, notifier, storage.NoopUploader{})

	created, err := f.svc.CreatePublic(context.Background(), f.tenantA, CaptureInput{
		Nome:     "Fernanda Souza",
		Telefone: "11944443333",
	}, audit.Meta{})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if created.OwnerUserID != f.corretorA.ID {
		t.Fatalf("captura deveria ir para o corretor disponível")
	}
	if created.Origem != "SITE" {
		t.Fatalf("captura sem origem deveria assumir SITE, veio %q", created.Origem)
	}

	<-notifier.done
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.mensagens) != 1 || notifier.mensagens[0].CorretorTelefone != "11999990000" {
		t.Fatalf("corretor deveria ser notificado no próprio telefone")
	}
}

func TestAddDocumentoTipoNaoSuportado(t *testing.T) {
	f := newFixture()
	l := f.seedLead(nil)

	_, err := f.svc.AddDocumento(context.Background(), f.principalCorretorA(), l.ID, DocumentInput{
		Filename:    "contrato.exe",
		ContentType: "application/x-msdownload",
		Body:        []byte{0x4d, 0x5a},
	}, audit.Meta{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("tipo não suportado deveria ser rejeitado, veio %v", err)
	}
}
