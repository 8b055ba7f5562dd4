package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/service"
	"github.com/aliintelligence/document-filler/store"
)

type DocumentHandler struct {
	store   *store.Store
	archive *service.ArchiveService
}

func NewDocumentHandler(st *store.Store, archive *service.ArchiveService) *DocumentHandler {
	return &DocumentHandler{store: st, archive: archive}
}

// List returns documents, optionally filtered by ?status
func (h *DocumentHandler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", model.StatusPending, model.StatusSent, model.StatusSigned, model.StatusFailed:
	default:
		respondError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	page, limit := pagination(c)
	docs, total, err := h.store.ListDocuments(status, page, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Get returns one document with its signature events
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get document")
		return
	}

	events, err := h.store.DocumentEvents(doc.ID)
	if err != nil {
		events = nil
	}

	respondOK(c, http.StatusOK, gin.H{"document": doc, "events": events})
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus manually overrides a document's status
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Status is required")
		return
	}

	switch req.Status {
	case model.StatusPending, model.StatusSent, model.StatusSigned, model.StatusFailed:
	default:
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	doc, err := h.store.UpdateDocumentStatus(c.Param("id"), req.Status)
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to update status")
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "document.status_override", "document", doc.ID,
		model.JSONMap{"status": req.Status})

	respondOK(c, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.store.GetDocument(id)
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get document")
		return
	}

	if err := h.store.DeleteDocument(id); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	// Archived copies go with the document; failures only leave orphans
	// in the bucket, so they are logged and ignored.
	if h.archive != nil && doc.SignNowDocumentID != "" {
		ctx := c.Request.Context()
		for _, object := range []string{
			service.FilledObject(doc.SignNowDocumentID),
			service.SignedObject(doc.SignNowDocumentID),
		} {
			if err := h.archive.Delete(ctx, object); err != nil {
				logger.Warn(ctx, "failed to delete archived copy", "object", object, "error", err)
			}
		}
	}

	h.store.LogActivity(middleware.GetUsername(c), "document.deleted", "document", id, nil)

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// Archive serves a document's archived PDF copy from object storage. By
// default it returns a presigned download link; ?raw=1 streams the bytes.
// ?copy=filled|signed selects which copy; signed documents default to the
// signed copy.
func (h *DocumentHandler) Archive(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get document")
		return
	}

	if h.archive == nil {
		respondError(c, http.StatusServiceUnavailable, "Archive storage is not configured")
		return
	}
	if doc.SignNowDocumentID == "" {
		respondError(c, http.StatusNotFound, "Document has no archived copy")
		return
	}

	copyKind := c.Query("copy")
	if copyKind == "" {
		if doc.Status == model.StatusSigned {
			copyKind = "signed"
		} else {
			copyKind = "filled"
		}
	}

	var objectName string
	switch copyKind {
	case "filled":
		objectName = service.FilledObject(doc.SignNowDocumentID)
	case "signed":
		objectName = service.SignedObject(doc.SignNowDocumentID)
	default:
		respondError(c, http.StatusBadRequest, "Invalid copy. Use: filled or signed")
		return
	}

	if c.Query("raw") == "1" {
		data, err := h.archive.Fetch(c.Request.Context(), objectName)
		if err != nil {
			respondError(c, http.StatusBadGateway, "Failed to fetch archived copy")
			return
		}
		c.Data(http.StatusOK, "application/pdf", data)
		return
	}

	url, err := h.archive.PresignedURL(c.Request.Context(), objectName)
	if err != nil {
		respondError(c, http.StatusBadGateway, "Failed to generate download link")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"copy":   copyKind,
		"object": objectName,
		"url":    url,
	})
}

// Events returns the signature event trail for a document
func (h *DocumentHandler) Events(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetDocument(id); err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get document")
		return
	}

	events, err := h.store.DocumentEvents(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get events")
		return
	}

	respondOK(c, http.StatusOK, events)
}
