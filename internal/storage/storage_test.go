package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestAllowedDocumentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"application/pdf", true},
		{"image/jpeg", true},
		{" Image/PNG ", true},
		{"image/webp", true},
		{"image/gif", false},
		{"text/html", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := AllowedDocumentType(tc.contentType); got != tc.want {
			t.Errorf("AllowedDocumentType(%q) = %v, esperado %v", tc.contentType, got, tc.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"contrato final.pdf", "contrato_final.pdf"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\janela.png", "janela.png"},
		{"çãí planta#1.pdf", "planta_1.pdf"},
		{"...", "documento"},
		{"", "documento"},
	}

	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, esperado %q", tc.in, got, tc.want)
		}
	}
}

func TestDocumentKeyNamespace(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()

	key := DocumentKey(tenantID, leadID, "proposta.pdf")

	prefix := "imobiliarias/" + tenantID.String() + "/leads/" + leadID.String() + "/"
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("chave %q não começa com %q", key, prefix)
	}
	if !strings.HasSuffix(key, "-proposta.pdf") {
		t.Fatalf("chave %q não preserva o nome higienizado", key)
	}
}
