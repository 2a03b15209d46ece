package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	httpmiddleware "github.com/imobilead/api/internal/http/middleware"
)

// ListAuditLogs consulta a trilha de auditoria. ADMIN enxerga somente a
// própria imobiliária; SUPER_ADMIN/ADMFULL enxergam tudo.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, CodeAuth, "sessão ausente", nil)
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		EntityType: q.Get("entity_type"),
		Action:     q.Get("action"),
	}
	if raw := q.Get("ator"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, CodeValidation, "ator inválido", nil)
			return
		}
		f.ActorUserID = &id
	}
	if raw := q.Get("imobiliaria"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, CodeValidation, "imobiliária inválida", nil)
			return
		}
		f.TenantID = &id
	}
	if raw := q.Get("de"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, CodeValidation, "data inicial inválida", nil)
			return
		}
		f.From = &ts
	}
	if raw := q.Get("ate"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, CodeValidation, "data final inválida", nil)
			return
		}
		f.To = &ts
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	logs, total, err := h.auditService.List(r.Context(), p, f, page, pageSize)
	if err != nil {
		if errors.Is(err, audit.ErrForbidden) {
			WriteError(w, CodeForbidden, "acesso negado", nil)
			return
		}
		log.Error().Err(err).Msg("audit list")
		WriteError(w, CodeInternal, "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"logs": logs, "total": total})
}
