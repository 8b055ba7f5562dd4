package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/store"
)

// AdminHandler covers user, permission, and activity-log management.
// All of its routes sit behind RequireRole(admin).
type AdminHandler struct {
	store *store.Store
}

func NewAdminHandler(st *store.Store) *AdminHandler {
	return &AdminHandler{store: st}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers()
	if err != nil {
		h.adminError(c, err)
		return
	}

	respondOK(c, http.StatusOK, users)
}

type RoleUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Role is required")
		return
	}

	if req.Role != model.RoleAdmin && req.Role != model.RoleSalesRep {
		respondError(c, http.StatusBadRequest, "Invalid role")
		return
	}

	id := c.Param("id")
	if err := h.store.UpdateUserRole(id, req.Role); err != nil {
		h.adminError(c, err)
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "user.role_changed", "user", id,
		model.JSONMap{"role": req.Role})

	respondOK(c, http.StatusOK, gin.H{"id": id, "role": req.Role})
}

type ActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	var req ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "is_active is required")
		return
	}

	id := c.Param("id")
	if err := h.store.SetUserActive(id, *req.IsActive); err != nil {
		h.adminError(c, err)
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "user.active_changed", "user", id,
		model.JSONMap{"is_active": *req.IsActive})

	respondOK(c, http.StatusOK, gin.H{"id": id, "is_active": *req.IsActive})
}

func (h *AdminHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.store.ListPermissions()
	if err != nil {
		h.adminError(c, err)
		return
	}

	respondOK(c, http.StatusOK, permissions)
}

type PermissionRequest struct {
	ContractID string `json:"contract_id" binding:"required"`
	Role       string `json:"role" binding:"required"`
	CanAccess  *bool  `json:"can_access" binding:"required"`
}

// UpsertPermission grants or revokes a role's access to a template
func (h *AdminHandler) UpsertPermission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "contract_id, role, and can_access are required")
		return
	}

	if err := h.store.UpsertPermission(req.ContractID, req.Role, *req.CanAccess); err != nil {
		h.adminError(c, err)
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "permission.changed", "template", req.ContractID,
		model.JSONMap{"role": req.Role, "can_access": *req.CanAccess})

	respondOK(c, http.StatusOK, gin.H{
		"contract_id": req.ContractID,
		"role":        req.Role,
		"can_access":  *req.CanAccess,
	})
}

func (h *AdminHandler) ListActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := h.store.ListActivity(limit)
	if err != nil {
		h.adminError(c, err)
		return
	}

	respondOK(c, http.StatusOK, entries)
}

func (h *AdminHandler) adminError(c *gin.Context, err error) {
	switch err {
	case store.ErrNotFound:
		respondError(c, http.StatusNotFound, "Not found")
	case store.ErrNoDatabase:
		respondError(c, http.StatusServiceUnavailable, "Admin management requires a database")
	default:
		respondError(c, http.StatusInternalServerError, "Admin operation failed")
	}
}
