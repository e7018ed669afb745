package erp

import (
	"time"

	"github.com/shopspring/decimal"
)

// Doctype names as the upstream ERP knows them
const (
	DoctypeProject       = "Project"
	DoctypeClientRequest = "Client Request"
	DoctypeFile          = "File"
	DoctypeSalesInvoice  = "Sales Invoice"
	DoctypeContract      = "Contract"
	DoctypeDeliverable   = "Deliverable"
)

// Date is a calendar date as the ERP serializes it ("2006-01-02").
// It tolerates empty strings and full timestamps on the wire.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	s = trimQuotes(s)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	d.Time = time.Time{}
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Project is an ERP Project document. One project is one client engagement.
type Project struct {
	Name            string  `json:"name"`
	ProjectName     string  `json:"project_name"`
	Customer        string  `json:"customer"`
	Status          string  `json:"status"`
	Tier            string  `json:"custom_tier"`
	NDASigned       int     `json:"custom_nda_signed"` // ERP check field, 0 or 1
	PercentComplete float64 `json:"percent_complete"`
	ExpectedEndDate Date    `json:"expected_end_date"`
	Notes           string  `json:"notes"`
}

// ClientRequest is an ERP Client Request document (the request builder backend)
type ClientRequest struct {
	Name        string `json:"name"`
	Project     string `json:"project"`
	Customer    string `json:"customer"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	RaisedBy    string `json:"raised_by"`
	Created     Date   `json:"creation"`
}

// SalesInvoice is an ERP Sales Invoice document
type SalesInvoice struct {
	Name              string          `json:"name"`
	Customer          string          `json:"customer"`
	Project           string          `json:"project"`
	Status            string          `json:"status"`
	Currency          string          `json:"currency"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	PostingDate       Date            `json:"posting_date"`
	DueDate           Date            `json:"due_date"`
}

// IsPaid reports whether nothing remains outstanding on the invoice
func (i SalesInvoice) IsPaid() bool {
	return i.OutstandingAmount.LessThanOrEqual(decimal.Zero)
}

// IsOverdue reports whether an outstanding balance is past its due date
func (i SalesInvoice) IsOverdue(now time.Time) bool {
	if i.IsPaid() || i.DueDate.IsZero() {
		return false
	}
	return now.After(i.DueDate.Time.Add(24 * time.Hour))
}

// Contract is an ERP Contract document. ContractType distinguishes NDAs from
// engagement agreements.
type Contract struct {
	Name         string `json:"name"`
	Party        string `json:"party_name"`
	Project      string `json:"project"`
	ContractType string `json:"contract_type"` // "NDA", "MSA", "SOW"
	Status       string `json:"status"`
	IsSigned     int    `json:"is_signed"` // ERP check field, 0 or 1
	SignedBy     string `json:"signed_by"`
	SignedOn     Date   `json:"signed_on"`
	StartDate    Date   `json:"start_date"`
	EndDate      Date   `json:"end_date"`
}

// Signed reports whether the contract has been executed
func (c Contract) Signed() bool {
	return c.IsSigned == 1
}

// IsNDA reports whether this contract is the engagement's NDA
func (c Contract) IsNDA() bool {
	return c.ContractType == "NDA"
}

// Deliverable is an ERP Deliverable document: a released work product
type Deliverable struct {
	Name       string `json:"name"`
	Project    string `json:"project"`
	Title      string `json:"title"`
	Status     string `json:"status"` // "Draft", "In Review", "Released"
	Version    string `json:"version"`
	FileURL    string `json:"file_url"`
	StorageKey string `json:"storage_key"` // object-store key when archived
	ReleasedOn Date   `json:"released_on"`
}

// Released reports whether the deliverable is visible to clients
func (d Deliverable) Released() bool {
	return d.Status == "Released"
}

// File is an ERP File document attached to another document
type File struct {
	Name              string `json:"name"`
	FileName          string `json:"file_name"`
	FileURL           string `json:"file_url"`
	FileSize          int64  `json:"file_size"`
	IsPrivate         int    `json:"is_private"`
	AttachedToDoctype string `json:"attached_to_doctype"`
	AttachedToName    string `json:"attached_to_name"`
}

// UploadInput describes a file to push into the ERP
type UploadInput struct {
	FileName          string
	Content           []byte
	IsPrivate         bool
	AttachedToDoctype string
	AttachedToName    string
}
