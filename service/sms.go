package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aliintelligence/document-filler/config"
)

// SMSService delivers signing links by text message. Without a provider URL
// configured it returns mock results so the rest of the workflow can proceed.
type SMSService struct {
	config     *config.SMSConfig
	httpClient *http.Client
}

type SMSResult struct {
	MessageID string    `json:"message_id"`
	Phone     string    `json:"phone"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sent_at"`
}

type smsProviderRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsProviderResponse struct {
	MessageID string `json:"message_id"`
}

func NewSMSService(cfg *config.SMSConfig) *SMSService {
	return &SMSService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send normalizes the phone number and delivers the message. Invalid
// numbers are rejected before any provider call.
func (s *SMSService) Send(phone, message string) (*SMSResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	if s.config.ProviderURL == "" {
		return &SMSResult{
			MessageID: fmt.Sprintf("MOCK-SMS-%d", time.Now().UnixMilli()),
			Phone:     normalized,
			Provider:  "mock",
			SentAt:    time.Now(),
		}, nil
	}

	payload, err := json.Marshal(smsProviderRequest{
		From:    s.config.FromNumber,
		To:      normalized,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.ProviderURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("SMS provider error: status %d: %s", resp.StatusCode, string(body))
	}

	var result smsProviderResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	return &SMSResult{
		MessageID: result.MessageID,
		Phone:     normalized,
		Provider:  "provider",
		SentAt:    time.Now(),
	}, nil
}
