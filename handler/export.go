package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/aliintelligence/document-filler/store"
)

type ExportHandler struct {
	store *store.Store
}

func NewExportHandler(st *store.Store) *ExportHandler {
	return &ExportHandler{store: st}
}

// Documents streams the document register as an xlsx workbook
func (h *ExportHandler) Documents(c *gin.Context) {
	docs, _, err := h.store.ListDocuments(c.Query("status"), 1, 10000)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch data for export")
		return
	}

	f := excelize.NewFile()
	sheetName := "Documents"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Customer", "Document Type", "Language", "Status", "Delivery", "SignNow ID", "Sent At", "Signed At", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, d := range docs {
		row := i + 2
		customerName := ""
		if d.Customer != nil {
			customerName = d.Customer.FullName()
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), customerName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), d.DocumentType)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), d.Language)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), d.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), d.DeliveryMethod)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), d.SignNowDocumentID)
		if d.SentAt != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), d.SentAt.Format("01/02/2006 15:04"))
		}
		if d.SignedAt != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), d.SignedAt.Format("01/02/2006 15:04"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), d.CreatedAt.Format("01/02/2006 15:04"))
	}

	fileName := fmt.Sprintf("documents_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to write Excel file")
	}
}

// Customers streams the customer list as an xlsx workbook
func (h *ExportHandler) Customers(c *gin.Context) {
	customers, _, err := h.store.ListCustomers(1, 10000)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch data for export")
		return
	}

	f := excelize.NewFile()
	sheetName := "Customers"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Email", "Phone", "Address", "City", "State", "Zip", "Equipment", "Finance Company", "Total Price", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, cust := range customers {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), cust.FullName())
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), cust.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), cust.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), cust.Address)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), cust.City)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), cust.State)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), cust.ZipCode)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), cust.Equipment)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), cust.FinanceCompany)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), cust.TotalEquipmentPrice)
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), cust.CreatedAt.Format("01/02/2006"))
	}

	fileName := fmt.Sprintf("customers_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to write Excel file")
	}
}
