package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/imobilead/api/internal/auth"
	"github.com/imobilead/api/internal/authz"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Auth valida o JWT de acesso e injeta o principal resolvido no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			principal, err := principalFromClaims(claims)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFromClaims(claims *auth.Claims) (authz.Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return authz.Principal{}, err
	}

	p := authz.Principal{UserID: userID, Role: claims.Role}

	if claims.TenantID != nil {
		tenantID, err := uuid.Parse(*claims.TenantID)
		if err != nil {
			return authz.Principal{}, err
		}
		p.TenantID = &tenantID
	}
	if claims.TeamID != nil {
		teamID, err := uuid.Parse(*claims.TeamID)
		if err != nil {
			return authz.Principal{}, err
		}
		p.TeamID = &teamID
	}

	return p, nil
}

// WithPrincipal injeta o principal no contexto (usado também nos testes).
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// GetPrincipal recupera o principal do contexto.
func GetPrincipal(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(authz.Principal)
	return p, ok
}

// RequireRoles garante que o principal possua um dos papéis informados.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente")
				return
			}

			for _, role := range roles {
				if strings.EqualFold(p.Role, role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "FORBIDDEN", "papel sem acesso a este recurso")
		})
	}
}

// RequireAdmin restringe a ADMIN, SUPER_ADMIN e ADMFULL.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(authz.RoleAdmin, authz.RoleSuperAdmin, authz.RoleAdmFull)(next)
}

// RequireSuper restringe a SUPER_ADMIN e ADMFULL.
func RequireSuper(next http.Handler) http.Handler {
	return RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmFull)(next)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
