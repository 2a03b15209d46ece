package status

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("status não encontrado")
	ErrForbidden     = errors.New("acesso negado")
	ErrNomeDuplicado = errors.New("já existe status com este nome na imobiliária")
	ErrEmUso         = errors.New("status referenciado por leads não pode ser removido")
	ErrValidation    = errors.New("dados inválidos")
)

// StatusCustom é uma etapa do funil definida pela imobiliária. O funil é
// dado, não código: o motor de ciclo de vida não impõe transições entre
// etapas.
type StatusCustom struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"imobiliaria_id"`
	Nome         string    `json:"nome"`
	Cor          string    `json:"cor"`
	Descricao    string    `json:"descricao"`
	Ativo        bool      `json:"ativo"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// CreateInput contém os campos para criar uma etapa.
type CreateInput struct {
	TenantID  *uuid.UUID
	Nome      string
	Cor       string
	Descricao string
}

// UpdateInput contém campos opcionais de atualização.
type UpdateInput struct {
	Nome      *string
	Cor       *string
	Descricao *string
	Ativo     *bool
}
