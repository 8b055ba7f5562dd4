package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/service"
)

type SMSHandler struct {
	sms *service.SMSService
}

func NewSMSHandler(sms *service.SMSService) *SMSHandler {
	return &SMSHandler{sms: sms}
}

type SendSMSRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// Send texts a message, typically a signing link, to a phone number
func (h *SMSHandler) Send(c *gin.Context) {
	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Phone number and message are required")
		return
	}

	result, err := h.sms.Send(req.PhoneNumber, req.Message)
	if err != nil {
		if err == service.ErrInvalidPhone {
			respondError(c, http.StatusBadRequest, "Invalid phone number")
			return
		}
		respondError(c, http.StatusBadGateway, "Failed to send SMS")
		return
	}

	respondOK(c, http.StatusOK, result)
}
