package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/config"
	"github.com/aliintelligence/document-filler/service"
)

func smsRouter(cfg *config.SMSConfig) *gin.Engine {
	handler := NewSMSHandler(service.NewSMSService(cfg))
	router := gin.New()
	router.POST("/send-sms", handler.Send)
	return router
}

func TestSMSHandlerSend(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name:           "mock send",
			body:           map[string]string{"phone_number": "5551234567", "message": "Your contract is ready"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid phone",
			body:           map[string]string{"phone_number": "123", "message": "hi"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing message",
			body:           map[string]string{"phone_number": "5551234567"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing phone",
			body:           map[string]string{"message": "hi"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := smsRouter(&config.SMSConfig{})

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/send-sms", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			env := decodeEnvelope(t, w)
			var result service.SMSResult
			if err := json.Unmarshal(env.Data, &result); err != nil {
				t.Fatalf("Failed to parse result: %v", err)
			}
			if result.Provider != "mock" {
				t.Errorf("Expected mock provider, got '%s'", result.Provider)
			}
			if result.Phone != "+15551234567" {
				t.Errorf("Expected normalized number, got '%s'", result.Phone)
			}
		})
	}
}

func TestSMSHandlerSendProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	router := smsRouter(&config.SMSConfig{ProviderURL: provider.URL, APIToken: "token", FromNumber: "+15550000000"})

	body, _ := json.Marshal(map[string]string{"phone_number": "5551234567", "message": "hi"})
	req := httptest.NewRequest("POST", "/send-sms", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}
