package lead

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/imobilead/api/internal/authz"
	httpmiddleware "github.com/imobilead/api/internal/http/middleware"
)

// roteador de teste com o principal já resolvido no contexto, como o
// middleware de autenticação faria.
func newTestRouter(f *fixture, p authz.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(httpmiddleware.WithPrincipal(req.Context(), p)))
		})
	})
	NewHandler(f.svc).RegisterRoutes(r)
	return r
}

func TestHandleChangeMudaEtapaDoLead(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)
	router := newTestRouter(f, f.principalCorretorA())

	body, _ := json.Marshal(map[string]any{"status_id": f.etapaVisita.ID})
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+l.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, corpo: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			StatusID *string `json:"status_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if resp.Data.StatusID == nil || *resp.Data.StatusID != f.etapaVisita.ID.String() {
		t.Fatalf("lead devolvido deveria estar na etapa nova, veio %v", resp.Data.StatusID)
	}

	if obs := f.store.observacoes[l.ID]; len(obs) != 1 || obs[0].Tipo != TipoMudancaStatus {
		t.Fatalf("mudança via rota deveria gerar uma observação MUDANCA_STATUS, veio %+v", obs)
	}
}

func TestHandleChangeCorretorAlheioRecebe403(t *testing.T) {
	f := newFixture()
	l := f.seedLead(&f.etapaNova.ID)
	outro := authz.Principal{UserID: f.corretorB.ID, Role: authz.RoleCorretor, TenantID: &f.tenantA}
	router := newTestRouter(f, outro)

	body, _ := json.Marshal(map[string]any{"status_id": f.etapaVisita.ID})
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+l.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, esperava 403", rec.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if resp.Error.Code != "FORBIDDEN" {
		t.Fatalf("código = %q, esperava FORBIDDEN", resp.Error.Code)
	}
	if len(f.store.observacoes[l.ID]) != 0 {
		t.Fatal("negação não deveria gravar histórico")
	}
}
