package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadInput representa um blob a persistir.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define o comportamento mínimo para guardar documentos de lead.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// MaxDocumentSize limita o tamanho de documentos anexados a leads.
const MaxDocumentSize = 10 << 20 // 10 MiB

var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
}

// AllowedDocumentType informa se o content-type é aceito para documentos.
func AllowedDocumentType(contentType string) bool {
	_, ok := allowedDocumentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// DocumentKey monta a chave do objeto namespaced por imobiliária e lead,
// higienizando o nome original do arquivo.
func DocumentKey(tenantID, leadID uuid.UUID, filename string) string {
	base := sanitizeFilename(filename)
	stamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("imobiliarias/%s/leads/%s/%s-%s", tenantID, leadID, stamp, base)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "documento"
	}
	return out
}
