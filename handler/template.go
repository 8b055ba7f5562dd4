package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/store"
)

type TemplateHandler struct {
	store        *store.Store
	templatesDir string
}

func NewTemplateHandler(st *store.Store, templatesDir string) *TemplateHandler {
	return &TemplateHandler{store: st, templatesDir: templatesDir}
}

// List returns the active templates the caller's role may use. Admins see
// every active template regardless of role assignment.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.store.ListTemplatesForRole(middleware.GetRole(c))
	if err != nil {
		if err == store.ErrNoDatabase {
			respondError(c, http.StatusServiceUnavailable, "Template management requires a database")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	respondOK(c, http.StatusOK, templates)
}

// Upload stores a new template PDF and its metadata
func (h *TemplateHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		respondError(c, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	name := c.PostForm("name")
	documentType := c.PostForm("document_type")
	language := c.PostForm("language")
	if name == "" || documentType == "" {
		respondError(c, http.StatusBadRequest, "name and document_type are required")
		return
	}
	if language == "" {
		language = model.LangEnglish
	}

	fileName := uuid.New().String() + ".pdf"
	path := filepath.Join(h.templatesDir, fileName)

	dst, err := os.Create(path)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to store file")
		return
	}
	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(path)
		respondError(c, http.StatusInternalServerError, "Failed to store file")
		return
	}

	template := &model.ContractTemplate{
		Name:             name,
		DocumentType:     documentType,
		Language:         language,
		FilePath:         fileName,
		Description:      c.PostForm("description"),
		IsActive:         true,
		OriginalFileName: header.Filename,
		FileSize:         size,
	}

	if err := h.store.CreateTemplate(template); err != nil {
		os.Remove(path)
		if err == store.ErrNoDatabase {
			respondError(c, http.StatusServiceUnavailable, "Template management requires a database")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "template.uploaded", "template", template.ID,
		model.JSONMap{"name": name, "document_type": documentType, "language": language})
	logger.Info(c.Request.Context(), "template uploaded", "template_id", template.ID, "name", name)

	respondOK(c, http.StatusCreated, template)
}

type TemplateUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *TemplateHandler) Update(c *gin.Context) {
	var req TemplateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	template, err := h.store.GetTemplate(c.Param("id"))
	if err != nil {
		h.templateError(c, err)
		return
	}

	if req.Name != "" {
		template.Name = req.Name
	}
	template.Description = req.Description

	if err := h.store.UpdateTemplate(template); err != nil {
		h.templateError(c, err)
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "template.updated", "template", template.ID, nil)

	respondOK(c, http.StatusOK, template)
}

type TemplateActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetActive toggles whether a template appears on the selection screen
func (h *TemplateHandler) SetActive(c *gin.Context) {
	var req TemplateActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "is_active is required")
		return
	}

	id := c.Param("id")
	if err := h.store.SetTemplateActive(id, *req.IsActive); err != nil {
		h.templateError(c, err)
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "template.active_changed", "template", id,
		model.JSONMap{"is_active": *req.IsActive})

	respondOK(c, http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	template, err := h.store.GetTemplate(c.Param("id"))
	if err != nil {
		h.templateError(c, err)
		return
	}

	if err := h.store.DeleteTemplate(template.ID); err != nil {
		h.templateError(c, err)
		return
	}

	if template.FilePath != "" {
		os.Remove(filepath.Join(h.templatesDir, template.FilePath))
	}

	h.store.LogActivity(middleware.GetUsername(c), "template.deleted", "template", template.ID, nil)

	respondOK(c, http.StatusOK, gin.H{"id": template.ID})
}

func (h *TemplateHandler) templateError(c *gin.Context, err error) {
	switch err {
	case store.ErrNotFound:
		respondError(c, http.StatusNotFound, "Template not found")
	case store.ErrNoDatabase:
		respondError(c, http.StatusServiceUnavailable, "Template management requires a database")
	default:
		respondError(c, http.StatusInternalServerError, "Template operation failed")
	}
}
