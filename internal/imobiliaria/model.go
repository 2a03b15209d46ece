package imobiliaria

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("imobiliária não encontrada")
	ErrForbidden = errors.New("acesso negado")
)

// Imobiliaria representa uma imobiliária cliente da plataforma. Uma vez dona
// de dados, nunca é removida fisicamente: apenas desativada.
type Imobiliaria struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	Email        *string   `json:"email,omitempty"`
	Telefone     *string   `json:"telefone,omitempty"`
	Endereco     *string   `json:"endereco,omitempty"`
	Ativa        bool      `json:"ativa"`
	CriadaEm     time.Time `json:"criada_em"`
	AtualizadaEm time.Time `json:"atualizada_em"`
}

// CreateInput contém os campos para registrar uma imobiliária.
type CreateInput struct {
	Nome     string
	Email    *string
	Telefone *string
	Endereco *string
}

// UpdateInput contém campos opcionais de atualização.
type UpdateInput struct {
	Nome     *string
	Email    *string
	Telefone *string
	Endereco *string
}
