package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Messenger delivers an OTP code to a phone number. Delivery is best-effort
// by default: the code is durable in the store before any Messenger runs.
type Messenger interface {
	SendOTP(phone, code string) error
}

// WhatsAppService sends OTP codes through the campaign API's templated
// WhatsApp endpoint. The template takes the code as variable "1".
type WhatsAppService struct {
	endpoint string
	client   *http.Client
}

// NewWhatsAppService creates the templated-endpoint messenger.
// WHATSAPP_TEMPLATE_URL must point at the process endpoint of the template.
func NewWhatsAppService() (*WhatsAppService, error) {
	endpoint := os.Getenv("WHATSAPP_TEMPLATE_URL")
	if endpoint == "" {
		return nil, fmt.Errorf("WHATSAPP_TEMPLATE_URL not set")
	}

	return &WhatsAppService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SendOTP posts {receiver, values:{"1": code}} to the template endpoint.
func (w *WhatsAppService) SendOTP(phone, code string) error {
	payload := map[string]interface{}{
		"receiver": phone,
		"values": map[string]string{
			"1": code,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal template payload: %w", err)
	}

	resp, err := w.client.Post(w.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp template request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp template returned %d: %s", resp.StatusCode, string(snippet))
	}

	log.Printf("✅ WhatsApp OTP sent to %s", maskPhone(phone))
	return nil
}

// maskPhone keeps the last 4 digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-4:]
}
