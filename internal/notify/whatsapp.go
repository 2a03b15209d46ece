package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Notifier envia mensagens para o corretor responsável por um lead.
type Notifier interface {
	NotifyNewLead(ctx context.Context, msg LeadMessage) error
}

// LeadMessage descreve o lead recém-atribuído.
type LeadMessage struct {
	CorretorTelefone string
	LeadNome         string
	LeadTelefone     string
	Origem           string
}

// WhatsAppNotifier integra com o gateway de envio de texto.
type WhatsAppNotifier struct {
	baseURL    string
	instanceID string
	token      string
	client     *http.Client
}

// NewWhatsAppNotifier retorna nil quando o gateway não está configurado;
// o chamador trata nil como notificação desabilitada.
func NewWhatsAppNotifier(baseURL, instanceID, token string) *WhatsAppNotifier {
	if baseURL == "" || instanceID == "" {
		return nil
	}
	return &WhatsAppNotifier{
		baseURL:    baseURL,
		instanceID: instanceID,
		token:      token,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WhatsAppNotifier) NotifyNewLead(ctx context.Context, msg LeadMessage) error {
	if n == nil || n.baseURL == "" {
		return errors.New("whatsapp notifier not configured")
	}
	if msg.CorretorTelefone == "" {
		return errors.New("corretor sem telefone cadastrado")
	}

	payload := map[string]any{
		"phone":   msg.CorretorTelefone,
		"message": formatLeadMessage(msg),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/instances/%s/token/%s/send-text", n.baseURL, n.instanceID, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway respondeu %d", resp.StatusCode)
	}
	return nil
}

func formatLeadMessage(msg LeadMessage) string {
	text := "🔔 *Novo lead atribuído*\n" + msg.LeadNome
	if msg.LeadTelefone != "" {
		text += "\n📞 " + msg.LeadTelefone
	}
	if msg.Origem != "" {
		text += "\nOrigem: " + msg.Origem
	}
	return text
}
