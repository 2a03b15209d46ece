package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewWhatsAppNotifierDesconfigurado(t *testing.T) {
	if n := NewWhatsAppNotifier("", "inst", "tok"); n != nil {
		t.Fatal("esperava nil sem base URL")
	}
	if n := NewWhatsAppNotifier("https://gw.example", "", "tok"); n != nil {
		t.Fatal("esperava nil sem instance ID")
	}
}

func TestNotifyNewLead(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(srv.URL, "inst-1", "tok-1")
	err := n.NotifyNewLead(context.Background(), LeadMessage{
		CorretorTelefone: "5511999990000",
		LeadNome:         "Maria Souza",
		LeadTelefone:     "11988887777",
		Origem:           "SITE",
	})
	if err != nil {
		t.Fatalf("NotifyNewLead: %v", err)
	}

	if gotPath != "/instances/inst-1/token/tok-1/send-text" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["phone"] != "5511999990000" {
		t.Errorf("phone = %q", gotBody["phone"])
	}
	if !strings.Contains(gotBody["message"], "Maria Souza") || !strings.Contains(gotBody["message"], "SITE") {
		t.Errorf("mensagem incompleta: %q", gotBody["message"])
	}
}

func TestNotifyNewLeadSemTelefoneDoCorretor(t *testing.T) {
	n := NewWhatsAppNotifier("https://gw.example", "inst", "tok")
	if err := n.NotifyNewLead(context.Background(), LeadMessage{LeadNome: "X"}); err == nil {
		t.Fatal("esperava erro sem telefone do corretor")
	}
}

func TestNotifyNewLeadGatewayFalha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(srv.URL, "inst", "tok")
	err := n.NotifyNewLead(context.Background(), LeadMessage{CorretorTelefone: "5511999990000", LeadNome: "X"})
	if err == nil {
		t.Fatal("esperava erro com status 502")
	}
}
