package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/divan/num2words"

	"github.com/aliintelligence/document-filler/model"
)

// FieldValues holds the resolved form field values for one document.
// Text holds text field values keyed by the exact PDF field name;
// Checkboxes holds checkbox states, with false meaning explicitly cleared.
type FieldValues struct {
	Text       map[string]string
	Checkboxes map[string]bool
}

const dateLayout = "1/2/2006"

// MapFields resolves the form field values for a document from its customer
// record and per-document additional fields. Unknown document types fall back
// to a generic alias table. Mapping never fails; fields without data are
// simply absent.
func MapFields(customer *model.Customer, doc *model.Document, now time.Time) FieldValues {
	extra := doc.AdditionalFields

	switch doc.DocumentType {
	case model.TypeHDDocs:
		return hdDocsFields(customer, extra, now)
	case model.TypeMembershipPlan:
		return membershipFields(customer, extra, now)
	case model.TypeChargeSlip:
		return chargeSlipFields(customer, now)
	default:
		return genericFields(customer)
	}
}

func hdDocsFields(c *model.Customer, extra model.JSONMap, now time.Time) FieldValues {
	text := map[string]string{
		"txtCustomerFirstName":            c.FirstName,
		"txtCustomerLastName":             c.LastName,
		"txtCustomerAddress":              c.Address,
		"txtCustomerCity":                 c.City,
		"txtCustomerState":                c.State,
		"txtCustomerZip":                  c.ZipCode,
		"txtCustomerEmailAddress":         c.Email,
		"txtCustomerHomePhoneNbr":         c.Phone,
		"txtCustomerName":                 c.FullName(),
		"txtContractPriceHS106":           c.TotalEquipmentPrice,
		"txtRemainingContractBalance106":  c.TotalEquipmentPrice,
		"txtContractPriceInWords":         amountInWords(c.TotalEquipmentPrice),
		"txtSalespersonName":              extra.String("salesperson_name"),
		"txtAuthorizedRepresentativeName": extra.String("authorized_representative"),
		"txtServiceProviderLicenseNumber": extra.String("license_number"),
	}

	scope := fmt.Sprintf("Equipment: %s\nFinance Company: %s\nEstimated Monthly Payment: %s\nInterest: %s%%",
		c.Equipment, c.FinanceCompany, c.MonthlyPayment, c.InterestRate)
	if promos := extra.String("promotions"); promos != "" {
		scope += "\nPromotions/Offers: " + promos
	}
	if notes := extra.String("notes"); notes != "" {
		scope += "\n" + notes
	}
	text["txtScope1"] = scope

	today := now.Format(dateLayout)
	for _, name := range []string{
		"txtTransactionDate",
		"txtServiceProviderDate",
		"txtServiceProviderDateHS106",
		"txtCustomerSignatureDate",
		"txtServiceProviderSignatureDate",
		"txtApproximateStartDateHS106",
		"txtApproximateFinishDateHS106",
		"txtContractDate",
		"txtDate",
	} {
		text[name] = today
	}

	// Three-day cancellation window
	text["txtNotLaterThanMidnightOfDate"] = now.AddDate(0, 0, 3).Format(dateLayout)

	return FieldValues{Text: text}
}

func membershipFields(c *model.Customer, extra model.JSONMap, now time.Time) FieldValues {
	today := now.Format(dateLayout)

	text := map[string]string{
		// These field names contain spaces in the source PDF.
		"Customer Name":    c.FullName(),
		"Customer Address": fmt.Sprintf("%s, %s, %s %s", c.Address, c.City, c.State, c.ZipCode),
		"Customer Phone":   c.Phone,
		"Customer Email":   c.Email,

		"Finance Company":     c.FinanceCompany,
		"Equipment Installed": c.Equipment,
		"Date":                today,
	}

	text["Date of Finance Approval"] = extra.StringOr("finance_approval_date", today)
	text["Date of Installation"] = extra.StringOr("install_date", today)

	tier := strings.ToLower(extra.StringOr("membership_type", "platinum"))
	years := membershipYears(tier)

	start := now
	if raw := extra.String("membership_start_date"); raw != "" {
		if parsed, err := time.Parse(dateLayout, raw); err == nil {
			start = parsed
		}
	}
	text["Membership Start Date"] = start.Format(dateLayout)
	text["Membership End Date"] = start.AddDate(years, 0, 0).Format(dateLayout)

	// Exactly one tier box stays checked
	boxes := map[string]bool{
		"PlatinumBox": false,
		"GoldBox":     false,
		"SilverBox":   false,
	}
	switch tier {
	case "gold":
		boxes["GoldBox"] = true
	case "silver":
		boxes["SilverBox"] = true
	default:
		boxes["PlatinumBox"] = true
	}

	return FieldValues{Text: text, Checkboxes: boxes}
}

func membershipYears(tier string) int {
	switch tier {
	case "gold":
		return 2
	case "silver":
		return 1
	default:
		return 3
	}
}

func chargeSlipFields(c *model.Customer, now time.Time) FieldValues {
	text := map[string]string{
		"CustomerName":    c.FullName(),
		"CustomerAddress": c.Address,
		"City":            c.City,
		"State":           c.State,
		"Zip":             c.ZipCode,
		"CustomerPhone":   c.Phone,
		"CustomerEmail":   c.Email,
		"Total":           c.TotalEquipmentPrice,
		"TotalSales":      c.TotalEquipmentPrice,
		"Balance":         c.TotalEquipmentPrice,
		"Row1Total":       c.TotalEquipmentPrice,
		"TotalInWords":    amountInWords(c.TotalEquipmentPrice),
		"MonthlyPayment":  c.MonthlyPayment,
		"APR":             c.InterestRate,
		"Row1Eq":          c.Equipment,
		"Row2Eq":          "Finance Company: " + c.FinanceCompany,
		"Row1":            "1",
		"SalesTax":        "0",
	}

	text["Date"] = now.Format(dateLayout)
	text["SaleYear"] = strconv.Itoa(now.Year())
	text["SaleMonth"] = strconv.Itoa(int(now.Month()))
	text["SaleDay"] = strconv.Itoa(now.Day())

	cc := now.AddDate(0, 1, 0)
	text["CCYear"] = strconv.Itoa(cc.Year())
	text["CCMonth"] = strconv.Itoa(int(cc.Month()))
	text["CCDay"] = strconv.Itoa(cc.Day())

	return FieldValues{Text: text}
}

// genericFields maps common field name aliases for templates that were not
// authored in-house.
func genericFields(c *model.Customer) FieldValues {
	aliases := map[string]string{
		"firstName":  c.FirstName,
		"first_name": c.FirstName,
		"lastName":   c.LastName,
		"last_name":  c.LastName,

		"email":       c.Email,
		"phone":       c.Phone,
		"phoneNumber": c.Phone,

		"address": c.Address,
		"street":  c.Address,
		"city":    c.City,
		"state":   c.State,

		"zip":        c.ZipCode,
		"zipCode":    c.ZipCode,
		"postalCode": c.ZipCode,

		"equipment":            c.Equipment,
		"equipmentDescription": c.Equipment,
		"equipment_desc":       c.Equipment,

		"financeCompany":  c.FinanceCompany,
		"finance_company": c.FinanceCompany,
		"lender":          c.FinanceCompany,
		"financier":       c.FinanceCompany,

		"interestRate":  c.InterestRate,
		"interest_rate": c.InterestRate,
		"rate":          c.InterestRate,
		"apr":           c.InterestRate,

		"monthlyPayment":  c.MonthlyPayment,
		"monthly_payment": c.MonthlyPayment,
		"payment":         c.MonthlyPayment,
		"paymentAmount":   c.MonthlyPayment,

		"totalEquipmentPrice": c.TotalEquipmentPrice,
		"total_price":         c.TotalEquipmentPrice,
		"equipmentPrice":      c.TotalEquipmentPrice,
		"totalPrice":          c.TotalEquipmentPrice,
		"amount":              c.TotalEquipmentPrice,

		"fullName":     c.FullName(),
		"customerName": c.FullName(),
		"name":         c.FullName(),
		"client_name":  c.FullName(),
	}

	text := make(map[string]string, len(aliases))
	for name, value := range aliases {
		if value != "" {
			text[name] = value
		}
	}

	return FieldValues{Text: text}
}

// amountInWords spells out a dollar amount ("12,500.50" becomes
// "twelve thousand five hundred and 50/100 dollars"). Unparseable
// amounts yield an empty string so the field is left blank.
func amountInWords(raw string) string {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return ""
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return ""
	}

	dollars := int(value)
	cents := int(math.Round((value - float64(dollars)) * 100))
	if cents == 100 {
		dollars++
		cents = 0
	}

	return fmt.Sprintf("%s and %02d/100 dollars", num2words.Convert(dollars), cents)
}
