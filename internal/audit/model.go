package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ações registradas na trilha de auditoria.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
	ActionView   = "VIEW"
	ActionExport = "EXPORT"
)

var (
	// ErrForbidden indica leitor sem papel de administração.
	ErrForbidden = errors.New("acesso negado")
)

// Log é uma linha imutável da trilha de auditoria. old_state/new_state são
// snapshots opacos; tenant_id é um snapshot da imobiliária afetada usado para
// escopar leitores ADMIN.
type Log struct {
	ID           uuid.UUID      `json:"id"`
	Action       string         `json:"action"`
	EntityType   string         `json:"entity_type"`
	EntityID     uuid.UUID      `json:"entity_id"`
	Descricao    string         `json:"descricao"`
	OldState     map[string]any `json:"old_state,omitempty"`
	NewState     map[string]any `json:"new_state,omitempty"`
	ActorUserID  uuid.UUID      `json:"actor_user_id"`
	TargetUserID *uuid.UUID     `json:"target_user_id,omitempty"`
	TenantID     *uuid.UUID     `json:"tenant_id,omitempty"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Entry descreve uma ação a ser registrada.
type Entry struct {
	Action       string
	EntityType   string
	EntityID     uuid.UUID
	Descricao    string
	OldState     map[string]any
	NewState     map[string]any
	ActorUserID  uuid.UUID
	TargetUserID *uuid.UUID
	TenantID     *uuid.UUID
	IPAddress    string
	UserAgent    string
}

// Meta carrega os dados de requisição que acompanham cada entrada.
type Meta struct {
	IP        string
	UserAgent string
}

// Filter restringe a consulta da trilha.
type Filter struct {
	EntityType  string
	Action      string
	ActorUserID *uuid.UUID
	TenantID    *uuid.UUID
	From        *time.Time
	To          *time.Time
}
