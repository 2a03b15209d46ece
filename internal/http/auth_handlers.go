package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	httpmiddleware "github.com/imobilead/api/internal/http/middleware"
	"github.com/imobilead/api/internal/service"
	"github.com/imobilead/api/internal/usuario"
)

type sessionResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int64            `json:"expires_in"`
	Usuario      *usuario.Usuario `json:"usuario"`
}

// Login autentica por e-mail e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, CodeValidation, "payload inválido", nil)
		return
	}
	if payload.Email == "" || payload.Senha == "" {
		WriteError(w, CodeValidation, "e-mail e senha obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Senha, metaFromRequest(r))
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    int64(result.ExpiresIn.Seconds()),
		Usuario:      result.Usuario,
	})
}

// Refresh rotaciona o refresh token e emite novos tokens.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, CodeValidation, "payload inválido", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    int64(result.ExpiresIn.Seconds()),
		Usuario:      result.Usuario,
	})
}

// Logout revoga a sessão corrente.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, CodeAuth, "sessão ausente", nil)
		return
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if err := h.authService.Logout(r.Context(), p.UserID, payload.RefreshToken, metaFromRequest(r)); err != nil {
		log.Error().Err(err).Msg("logout")
		WriteError(w, CodeInternal, "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "sessão encerrada"})
}

// Me devolve o perfil autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := httpmiddleware.GetPrincipal(r.Context())
	if !ok {
		WriteError(w, CodeAuth, "sessão ausente", nil)
		return
	}

	user, err := h.authService.Me(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, usuario.ErrNotFound) {
			WriteError(w, CodeNotFound, "usuário não encontrado", nil)
			return
		}
		log.Error().Err(err).Msg("me")
		WriteError(w, CodeInternal, "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, CodeAuth, "credenciais inválidas", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, CodeForbidden, "conta desativada", nil)
	default:
		log.Error().Err(err).Msg("auth handler error")
		WriteError(w, CodeInternal, "erro interno", nil)
	}
}

func metaFromRequest(r *http.Request) audit.Meta {
	return audit.Meta{IP: httpmiddleware.RealIPFromRequest(r), UserAgent: r.UserAgent()}
}
