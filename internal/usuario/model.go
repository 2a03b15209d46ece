package usuario

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Situações possíveis de um usuário.
const (
	StatusAtivo   = "ATIVO"
	StatusInativo = "INATIVO"
)

var (
	ErrNotFound   = errors.New("usuário não encontrado")
	ErrForbidden  = errors.New("acesso negado")
	ErrEmailEmUso = errors.New("email já cadastrado")
	ErrValidation = errors.New("dados inválidos")
)

// Usuario representa um colaborador: corretor, administrador de imobiliária
// ou administrador global. CORRETOR e ADMIN sempre pertencem a uma
// imobiliária; SUPER_ADMIN e ADMFULL não têm vínculo.
type Usuario struct {
	ID           uuid.UUID  `json:"id"`
	Nome         string     `json:"nome"`
	Email        string     `json:"email"`
	Telefone     *string    `json:"telefone,omitempty"`
	SenhaHash    string     `json:"-"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	TenantID     *uuid.UUID `json:"imobiliaria_id,omitempty"`
	TeamID       *uuid.UUID `json:"equipe_id,omitempty"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
}

// CreateInput contém os campos para cadastrar um usuário.
type CreateInput struct {
	Nome     string
	Email    string
	Telefone *string
	Senha    string
	Role     string
	TenantID *uuid.UUID
	TeamID   *uuid.UUID
}

// UpdateInput contém campos opcionais de atualização.
type UpdateInput struct {
	Nome     *string
	Email    *string
	Telefone *string
	Status   *string
	TeamID   *uuid.UUID
}
