package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aliintelligence/document-filler/middleware"
	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/store"
)

type CustomerHandler struct {
	store *store.Store
}

func NewCustomerHandler(st *store.Store) *CustomerHandler {
	return &CustomerHandler{store: st}
}

type CustomerRequest struct {
	FirstName           string `json:"first_name" binding:"required"`
	LastName            string `json:"last_name" binding:"required"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	ZipCode             string `json:"zip_code"`
	Equipment           string `json:"equipment"`
	FinanceCompany      string `json:"finance_company"`
	InterestRate        string `json:"interest_rate"`
	MonthlyPayment      string `json:"monthly_payment"`
	TotalEquipmentPrice string `json:"total_equipment_price"`
}

func (r *CustomerRequest) apply(customer *model.Customer) {
	customer.FirstName = r.FirstName
	customer.LastName = r.LastName
	customer.Email = r.Email
	customer.Phone = r.Phone
	customer.Address = r.Address
	customer.City = r.City
	customer.State = r.State
	customer.ZipCode = r.ZipCode
	customer.Equipment = r.Equipment
	customer.FinanceCompany = r.FinanceCompany
	customer.InterestRate = r.InterestRate
	customer.MonthlyPayment = r.MonthlyPayment
	customer.TotalEquipmentPrice = r.TotalEquipmentPrice
}

// List returns customers, paginated, or a search result when ?search is set
func (h *CustomerHandler) List(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		customers, err := h.store.SearchCustomers(term)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to search customers")
			return
		}
		respondOK(c, http.StatusOK, gin.H{"customers": customers, "total": len(customers)})
		return
	}

	page, limit := pagination(c)
	customers, total, err := h.store.ListCustomers(page, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list customers")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Get returns one customer with their documents and document stats
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.store.GetCustomer(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get customer")
		return
	}

	stats, err := h.store.CustomerStats(customer.ID)
	if err != nil {
		stats = &model.DocumentStats{}
	}

	respondOK(c, http.StatusOK, gin.H{"customer": customer, "stats": stats})
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "First and last name are required")
		return
	}

	customer := &model.Customer{}
	req.apply(customer)

	if err := h.store.CreateCustomer(customer); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "customer.created", "customer", customer.ID, nil)
	logger.Info(c.Request.Context(), "customer created", "customer_id", customer.ID)

	respondOK(c, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "First and last name are required")
		return
	}

	customer, err := h.store.GetCustomer(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get customer")
		return
	}

	req.apply(customer)
	if err := h.store.UpdateCustomer(customer); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "customer.updated", "customer", customer.ID, nil)

	respondOK(c, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetCustomer(id); err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get customer")
		return
	}

	if err := h.store.DeleteCustomer(id); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	h.store.LogActivity(middleware.GetUsername(c), "customer.deleted", "customer", id, nil)

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// Stats returns the per-status document counts for one customer
func (h *CustomerHandler) Stats(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetCustomer(id); err != nil {
		if err == store.ErrNotFound {
			respondError(c, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get customer")
		return
	}

	stats, err := h.store.CustomerStats(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	respondOK(c, http.StatusOK, stats)
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
