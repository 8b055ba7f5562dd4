package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/service"
	"github.com/aliintelligence/document-filler/store"
)

type SignNowHandler struct {
	store    *store.Store
	dispatch *service.DispatchService
	signNow  *service.SignNowService
	poller   *service.Poller
}

func NewSignNowHandler(st *store.Store, dispatch *service.DispatchService, signNow *service.SignNowService, poller *service.Poller) *SignNowHandler {
	return &SignNowHandler{
		store:    st,
		dispatch: dispatch,
		signNow:  signNow,
		poller:   poller,
	}
}

// Upload fills a contract for a customer and sends it out for signature.
// Provider failures still succeed with a mock dispatch; only validation
// failures are errors.
func (h *SignNowHandler) Upload(c *gin.Context) {
	var req service.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.CustomerID == "" || req.DocumentType == "" {
		respondError(c, http.StatusBadRequest, "customer_id and document_type are required")
		return
	}

	result, err := h.dispatch.Dispatch(c.Request.Context(), req)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			respondError(c, http.StatusNotFound, "Customer not found")
		case service.ErrInvalidPhone:
			respondError(c, http.StatusBadRequest, "Invalid phone number")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to dispatch document")
		}
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "document.dispatched", "document", result.Document.ID,
		model.JSONMap{"mock": result.Mock, "delivery_method": result.Document.DeliveryMethod})

	respondOK(c, http.StatusOK, result)
}

// Document serves the provider-side views of a document. The action query
// parameter selects history, download, or status.
func (h *SignNowHandler) Document(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get document")
		return
	}

	switch c.DefaultQuery("action", "status") {
	case "history":
		h.history(c, doc)
	case "download":
		h.download(c, doc)
	case "status":
		h.status(c, doc)
	default:
		respondError(c, http.StatusBadRequest, "Invalid action. Use: history, download, or status")
	}
}

func (h *SignNowHandler) history(c *gin.Context, doc *model.Document) {
	history, err := h.signNow.DocumentHistory(doc.SignNowDocumentID)
	if err != nil {
		if err == service.ErrNotConfigured {
			respondError(c, http.StatusServiceUnavailable, "SignNow is not configured")
			return
		}
		respondError(c, http.StatusBadGateway, "Failed to fetch history")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"document_id": doc.SignNowDocumentID, "history": history})
}

func (h *SignNowHandler) download(c *gin.Context, doc *model.Document) {
	data, err := h.signNow.Download(doc.SignNowDocumentID, c.Query("with_history") == "1")
	if err != nil {
		if err == service.ErrNotConfigured {
			respondError(c, http.StatusServiceUnavailable, "SignNow is not configured")
			return
		}
		respondError(c, http.StatusBadGateway, "Failed to download document")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"document_id":   doc.SignNowDocumentID,
		"content_type":  "application/pdf",
		"document_data": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
	})
}

func (h *SignNowHandler) status(c *gin.Context, doc *model.Document) {
	signed, err := h.poller.CheckDocument(c.Request.Context(), doc)
	if err != nil {
		if err == service.ErrNotConfigured {
			respondError(c, http.StatusServiceUnavailable, "SignNow is not configured")
			return
		}
		respondError(c, http.StatusBadGateway, "Failed to check status")
		return
	}

	status := model.StatusSent
	if signed {
		status = model.StatusSigned
	}

	respondOK(c, http.StatusOK, gin.H{
		"document_id": doc.ID,
		"status":      status,
		"is_signed":   signed,
	})
}

// CheckAll sweeps every sent document against the provider
func (h *SignNowHandler) CheckAll(c *gin.Context) {
	checked, signed, err := h.poller.CheckAllSent(c.Request.Context())
	if err != nil {
		if err == service.ErrNotConfigured {
			respondError(c, http.StatusServiceUnavailable, "SignNow is not configured")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to check documents")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"checked": checked, "signed": signed})
}
