package lead

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("lead não encontrado")
	ErrForbidden  = errors.New("acesso negado")
	ErrValidation = errors.New("dados inválidos")
)

// Tipos de lançamento no histórico do lead.
const (
	TipoObservacao    = "OBSERVACAO"
	TipoMudancaStatus = "MUDANCA_STATUS"
)

// Lead representa um contato em negociação, sempre vinculado a uma
// imobiliária e a um corretor responsável.
type Lead struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"imobiliaria_id"`
	OwnerUserID      uuid.UUID  `json:"corretor_id"`
	OwnerNome        string     `json:"corretor_nome,omitempty"`
	Nome             string     `json:"nome"`
	Email            *string    `json:"email,omitempty"`
	Telefone         string     `json:"telefone"`
	Origem           string     `json:"origem"`
	Interesse        *string    `json:"interesse,omitempty"`
	StatusID         *uuid.UUID `json:"status_id,omitempty"`
	StatusNome       *string    `json:"status_nome,omitempty"`
	ObservacoesTotal int64      `json:"observacoes_total"`
	CriadoEm         time.Time  `json:"criado_em"`
	AtualizadoEm     time.Time  `json:"atualizado_em"`
}

// Observacao é um lançamento imutável no histórico do lead. Mudanças de
// status guardam os nomes das etapas na época do evento, para que o
// histórico sobreviva a renomeações e exclusões no catálogo.
type Observacao struct {
	ID                 uuid.UUID  `json:"id"`
	LeadID             uuid.UUID  `json:"lead_id"`
	AutorID            uuid.UUID  `json:"autor_id"`
	AutorNome          string     `json:"autor_nome,omitempty"`
	Tipo               string     `json:"tipo"`
	Texto              string     `json:"texto,omitempty"`
	StatusAnteriorID   *uuid.UUID `json:"status_anterior_id,omitempty"`
	StatusAnteriorNome *string    `json:"status_anterior_nome,omitempty"`
	StatusNovoID       *uuid.UUID `json:"status_novo_id,omitempty"`
	StatusNovoNome     *string    `json:"status_novo_nome,omitempty"`
	CriadoEm           time.Time  `json:"criado_em"`
}

// Documento é um arquivo anexado ao lead.
type Documento struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"lead_id"`
	Nome        string    `json:"nome"`
	ContentType string    `json:"content_type"`
	Tamanho     int64     `json:"tamanho"`
	URL         string    `json:"url"`
	ChaveObjeto string    `json:"-"`
	EnviadoPor  uuid.UUID `json:"enviado_por"`
	CriadoEm    time.Time `json:"criado_em"`
}

// CreateInput contém os campos para registrar um lead. Nome e telefone
// são obrigatórios; a etapa inicial é opcional (lead nasce "sem status").
type CreateInput struct {
	TenantID    *uuid.UUID
	OwnerUserID *uuid.UUID
	Nome        string
	Email       *string
	Telefone    string
	Origem      string
	Interesse   *string
	StatusID    *uuid.UUID
}

// CaptureInput é o payload do formulário público de captura.
type CaptureInput struct {
	Nome      string
	Email     *string
	Telefone  string
	Origem    string
	Interesse *string
}

// ChangeInput descreve uma mutação sobre o lead: nova etapa, nota, ou ambos.
type ChangeInput struct {
	StatusID   *uuid.UUID
	Observacao string
}

// Filter restringe a listagem de leads.
type Filter struct {
	TenantID    *uuid.UUID
	OwnerUserID *uuid.UUID
	StatusID    *uuid.UUID
	Origem      string
	Busca       string
}
