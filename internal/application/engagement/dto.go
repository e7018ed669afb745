package engagement

import (
	"time"

	"github.com/portal/backend/internal/domain/engagement"
	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/shopspring/decimal"
)

// Viewer is the resolved scope of the caller, extracted from session claims.
// Operators see every engagement; clients see their own client's, optionally
// narrowed to an explicit engagement grant list.
type Viewer struct {
	UserID        string
	Email         string
	Role          string
	ClientID      string
	EngagementIDs []string
}

// IsOperator reports whether the viewer holds the operator role
func (v Viewer) IsOperator() bool {
	return v.Role == "OPERATOR"
}

// CanAccess reports whether the viewer may read the given engagement
func (v Viewer) CanAccess(engagementID string) bool {
	if v.IsOperator() {
		return true
	}
	if len(v.EngagementIDs) == 0 {
		return true
	}
	for _, id := range v.EngagementIDs {
		if id == engagementID {
			return true
		}
	}
	return false
}

// ViewerRole maps the viewer onto the resolver's role type
func (v Viewer) ViewerRole() engagement.ViewerRole {
	if v.IsOperator() {
		return engagement.ViewerOperator
	}
	return engagement.ViewerClient
}

// EngagementSummary is the list view of one engagement
type EngagementSummary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ClientID        string     `json:"client_id"`
	Tier            string     `json:"tier"`
	Status          string     `json:"status"`
	PercentComplete float64    `json:"percent_complete"`
	ExpectedEndDate *time.Time `json:"expected_end_date,omitempty"`
}

// ModuleStatesResult carries the resolved module map plus the snapshot facts
// the frontend renders alongside it
type ModuleStatesResult struct {
	EngagementID string            `json:"engagement_id"`
	Tier         string            `json:"tier"`
	Status       string            `json:"status"`
	NDASigned    bool              `json:"nda_signed"`
	BillingState string            `json:"billing_state"`
	Modules      map[string]string `json:"modules"`
	FetchedAt    time.Time         `json:"fetched_at"`
}

// RequestInfo is the API view of a client request
type RequestInfo struct {
	ID          string     `json:"id"`
	Engagement  string     `json:"engagement_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	RaisedBy    string     `json:"raised_by"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// CreateRequestInput describes a new client request
type CreateRequestInput struct {
	EngagementID string
	Title        string
	Description  string
	Category     string
	Priority     string
}

// UpdateRequestInput carries edits to an open request. Nil fields are left
// untouched.
type UpdateRequestInput struct {
	EngagementID string
	RequestID    string
	Title        *string
	Description  *string
	Category     *string
	Priority     *string
}

// InvoiceInfo is the API view of a sales invoice
type InvoiceInfo struct {
	ID          string          `json:"id"`
	Engagement  string          `json:"engagement_id"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Outstanding decimal.Decimal `json:"outstanding"`
	PostingDate *time.Time      `json:"posting_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Overdue     bool            `json:"overdue"`
}

// SettlementSummary aggregates the invoice position across an engagement
type SettlementSummary struct {
	Currency         string          `json:"currency"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalSettled     decimal.Decimal `json:"total_settled"`
	OverdueCount     int             `json:"overdue_count"`
	BillingState     string          `json:"billing_state"`
}

// ContractInfo is the API view of a contract
type ContractInfo struct {
	ID           string     `json:"id"`
	Engagement   string     `json:"engagement_id"`
	ContractType string     `json:"contract_type"`
	Status       string     `json:"status"`
	Signed       bool       `json:"signed"`
	SignedBy     string     `json:"signed_by,omitempty"`
	SignedOn     *time.Time `json:"signed_on,omitempty"`
}

// DeliverableInfo is the API view of a deliverable
type DeliverableInfo struct {
	ID         string     `json:"id"`
	Engagement string     `json:"engagement_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Version    string     `json:"version"`
	Released   bool       `json:"released"`
	ReleasedOn *time.Time `json:"released_on,omitempty"`
}

// WiringStatus reports per-module ERP reachability as seen by the prober
type WiringStatus struct {
	Modules   map[string]bool `json:"modules"`
	CheckedAt time.Time       `json:"checked_at"`
}

// DownloadResult is either a redirect URL into object storage or inline
// content proxied from the ERP. Exactly one of URL and Content is set.
type DownloadResult struct {
	URL         string
	Content     []byte
	ContentType string
	FileName    string
}

// FileInfo is the API view of an attached file
type FileInfo struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	Private    bool   `json:"private"`
	AttachedTo string `json:"attached_to"`
}

// UploadInput describes a file upload destined for the ERP
type UploadInput struct {
	EngagementID string
	FileName     string
	Content      []byte
	AttachedTo   string // deliverable or request id; empty attaches to the project
}

func datePtr(d erp.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func newEngagementSummary(p erp.Project) EngagementSummary {
	tier, err := engagement.ParseTier(p.Tier)
	tierName := string(tier)
	if err != nil {
		tierName = p.Tier
	}
	return EngagementSummary{
		ID:              p.Name,
		Name:            p.ProjectName,
		ClientID:        p.Customer,
		Tier:            tierName,
		Status:          string(engagement.ParseProjectStatus(p.Status)),
		PercentComplete: p.PercentComplete,
		ExpectedEndDate: datePtr(p.ExpectedEndDate),
	}
}

func newRequestInfo(r erp.ClientRequest) RequestInfo {
	return RequestInfo{
		ID:          r.Name,
		Engagement:  r.Project,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
		Status:      r.Status,
		RaisedBy:    r.RaisedBy,
		CreatedAt:   datePtr(r.Created),
	}
}

func newInvoiceInfo(inv erp.SalesInvoice, now time.Time) InvoiceInfo {
	return InvoiceInfo{
		ID:          inv.Name,
		Engagement:  inv.Project,
		Status:      inv.Status,
		Currency:    inv.Currency,
		GrandTotal:  inv.GrandTotal,
		Outstanding: inv.OutstandingAmount,
		PostingDate: datePtr(inv.PostingDate),
		DueDate:     datePtr(inv.DueDate),
		Overdue:     inv.IsOverdue(now),
	}
}

func newContractInfo(c erp.Contract) ContractInfo {
	return ContractInfo{
		ID:           c.Name,
		Engagement:   c.Project,
		ContractType: c.ContractType,
		Status:       c.Status,
		Signed:       c.Signed(),
		SignedBy:     c.SignedBy,
		SignedOn:     datePtr(c.SignedOn),
	}
}

func newDeliverableInfo(d erp.Deliverable) DeliverableInfo {
	return DeliverableInfo{
		ID:         d.Name,
		Engagement: d.Project,
		Title:      d.Title,
		Status:     d.Status,
		Version:    d.Version,
		Released:   d.Released(),
		ReleasedOn: datePtr(d.ReleasedOn),
	}
}

func newFileInfo(f erp.File) FileInfo {
	return FileInfo{
		ID:         f.Name,
		FileName:   f.FileName,
		FileSize:   f.FileSize,
		Private:    f.IsPrivate == 1,
		AttachedTo: f.AttachedToName,
	}
}
