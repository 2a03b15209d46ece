package lead

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	httpmiddleware "github.com/imobilead/api/internal/http/middleware"
	"github.com/imobilead/api/internal/storage"
)

// Handler orquestra as rotas de leads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes monta as rotas autenticadas de leads.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleChange)
		r.Get("/{id}/observacoes", h.handleListObservacoes)
		r.Post("/{id}/observacoes", h.handleAddObservacao)
		r.Get("/{id}/documentos", h.handleListDocumentos)
		r.Post("/{id}/documentos", h.handleAddDocumento)
	})
}

// RegisterPublicRoutes monta o formulário de captura, sem autenticação.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/captura/{imobiliariaID}", h.handleCapture)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	q := r.URL.Query()
	f := Filter{
		Origem: q.Get("origem"),
		Busca:  q.Get("busca"),
	}
	if raw := q.Get("status"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "status inválido", nil)
			return
		}
		f.StatusID = &id
	}
	if raw := q.Get("imobiliaria"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
			return
		}
		f.TenantID = &id
	}
	if raw := q.Get("corretor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "corretor inválido", nil)
			return
		}
		f.OwnerUserID = &id
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	leads, total, err := h.service.List(r.Context(), p, f, page, pageSize)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "total": total})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload struct {
		Nome        string     `json:"nome"`
		Email       *string    `json:"email"`
		Telefone    string     `json:"telefone"`
		Origem      string     `json:"origem"`
		Interesse   *string    `json:"interesse"`
		Status      *uuid.UUID `json:"status_id"`
		Imobiliaria *uuid.UUID `json:"imobiliaria_id"`
		Corretor    *uuid.UUID `json:"corretor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.Create(r.Context(), p, CreateInput{
		TenantID:    payload.Imobiliaria,
		OwnerUserID: payload.Corretor,
		Nome:        payload.Nome,
		Email:       payload.Email,
		Telefone:    payload.Telefone,
		Origem:      payload.Origem,
		Interesse:   payload.Interesse,
		StatusID:    payload.Status,
	}, metaFromRequest(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "imobiliariaID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var payload struct {
		Nome      string  `json:"nome"`
		Email     *string `json:"email"`
		Telefone  string  `json:"telefone"`
		Origem    string  `json:"origem"`
		Interesse *string `json:"interesse"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	created, err := h.service.CreatePublic(r.Context(), tenantID, CaptureInput{
		Nome:      payload.Nome,
		Email:     payload.Email,
		Telefone:  payload.Telefone,
		Origem:    payload.Origem,
		Interesse: payload.Interesse,
	}, metaFromRequest(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	// resposta mínima: o formulário público não enxerga dados internos
	writeJSON(w, http.StatusCreated, map[string]any{"id": created.ID})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	l, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) handleChange(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload struct {
		Status     *uuid.UUID `json:"status_id"`
		Observacao string     `json:"observacao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	updated, err := h.service.ApplyChange(r.Context(), p, id, ChangeInput{
		StatusID:   payload.Status,
		Observacao: payload.Observacao,
	}, metaFromRequest(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleListObservacoes(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	observacoes, err := h.service.ListObservacoes(r.Context(), p, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"observacoes": observacoes})
}

func (h *Handler) handleAddObservacao(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload struct {
		Texto string `json:"texto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.Texto == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "texto obrigatório", nil)
		return
	}

	updated, err := h.service.ApplyChange(r.Context(), p, id, ChangeInput{Observacao: payload.Texto}, metaFromRequest(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, updated)
}

func (h *Handler) handleListDocumentos(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	documentos, err := h.service.ListDocumentos(r.Context(), p, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"documentos": documentos})
}

func (h *Handler) handleAddDocumento(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	if err := r.ParseMultipartForm(storage.MaxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "arquivo inválido ou grande demais", nil)
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "campo 'arquivo' obrigatório", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, storage.MaxDocumentSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
		return
	}

	doc, err := h.service.AddDocumento(r.Context(), p, id, DocumentInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	}, metaFromRequest(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func metaFromRequest(r *http.Request) audit.Meta {
	return audit.Meta{IP: httpmiddleware.RealIPFromRequest(r), UserAgent: r.UserAgent()}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "lead não encontrado", nil)
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("lead handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": payload, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": nil, "error": body})
}
