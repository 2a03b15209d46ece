package http

import (
	"encoding/json"
	"net/http"
)

// Códigos estáveis do contrato de erro da API. Cada código carrega o status
// HTTP correspondente, então os handlers não repetem o mapeamento.
const (
	CodeAuth        = "AUTH"
	CodeForbidden   = "FORBIDDEN"
	CodeNotFound    = "NOT_FOUND"
	CodeValidation  = "VALIDATION"
	CodeConflict    = "CONFLICT"
	CodeInternal    = "INTERNAL"
	CodeUnavailable = "UNAVAILABLE"
)

var codeStatus = map[string]int{
	CodeAuth:        http.StatusUnauthorized,
	CodeForbidden:   http.StatusForbidden,
	CodeNotFound:    http.StatusNotFound,
	CodeValidation:  http.StatusBadRequest,
	CodeConflict:    http.StatusConflict,
	CodeInternal:    http.StatusInternalServerError,
	CodeUnavailable: http.StatusServiceUnavailable,
}

// envelope padroniza toda resposta da API: exatamente um entre data e error
// vem preenchido.
type envelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON responde sucesso no envelope da API.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Data: data})
}

// WriteError responde falha normalizada; o status HTTP vem do código.
func WriteError(w http.ResponseWriter, code, message string, details any) {
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeEnvelope(w, status, envelope{Error: &errorBody{Code: code, Message: message, Details: details}})
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
