package erp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockClient serves seeded in-memory data so the portal runs without an ERP.
// Development only; production config refuses to start in mock mode.
type MockClient struct {
	mu           sync.RWMutex
	projects     map[string]Project
	requests     map[string]ClientRequest
	invoices     map[string]SalesInvoice
	contracts    map[string]Contract
	deliverables map[string]Deliverable
	files        map[string]File
	unwired      map[string]bool // doctypes to report as unreachable
	requestSeq   int
	fileSeq      int
}

// NewMockClient creates a mock backend seeded with one demo client, two
// engagements at different tiers, and enough documents to light up every
// portal module.
func NewMockClient() *MockClient {
	m := &MockClient{
		projects:     make(map[string]Project),
		requests:     make(map[string]ClientRequest),
		invoices:     make(map[string]SalesInvoice),
		contracts:    make(map[string]Contract),
		deliverables: make(map[string]Deliverable),
		files:        make(map[string]File),
		unwired:      make(map[string]bool),
	}
	m.seed()
	return m
}

func (m *MockClient) seed() {
	now := time.Now()

	m.projects["PROJ-0001"] = Project{
		Name:            "PROJ-0001",
		ProjectName:     "Market Entry Diagnosis",
		Customer:        "CUST-0001",
		Status:          "Open",
		Tier:            "INTEL_ONLY",
		NDASigned:       1,
		PercentComplete: 65,
		ExpectedEndDate: Date{now.AddDate(0, 1, 0)},
	}
	m.projects["PROJ-0002"] = Project{
		Name:            "PROJ-0002",
		ProjectName:     "Platform Architecture Program",
		Customer:        "CUST-0001",
		Status:          "Open",
		Tier:            "CUSTOM",
		NDASigned:       1,
		PercentComplete: 30,
		ExpectedEndDate: Date{now.AddDate(0, 3, 0)},
	}

	m.requests["CR-0001"] = ClientRequest{
		Name:        "CR-0001",
		Project:     "PROJ-0002",
		Customer:    "CUST-0001",
		Title:       "Add competitor pricing coverage",
		Description: "Extend the weekly brief with pricing moves of the top five competitors.",
		Category:    "Scope",
		Priority:    "Medium",
		Status:      "Open",
		RaisedBy:    "client@example.com",
		Created:     Date{now.AddDate(0, 0, -10)},
	}

	m.invoices["SINV-0001"] = SalesInvoice{
		Name:              "SINV-0001",
		Customer:          "CUST-0001",
		Project:           "PROJ-0001",
		Status:            "Paid",
		Currency:          "EUR",
		GrandTotal:        decimal.NewFromInt(12000),
		OutstandingAmount: decimal.Zero,
		PostingDate:       Date{now.AddDate(0, -2, 0)},
		DueDate:           Date{now.AddDate(0, -1, 0)},
	}
	m.invoices["SINV-0002"] = SalesInvoice{
		Name:              "SINV-0002",
		Customer:          "CUST-0001",
		Project:           "PROJ-0002",
		Status:            "Unpaid",
		Currency:          "EUR",
		GrandTotal:        decimal.NewFromInt(45000),
		OutstandingAmount: decimal.NewFromInt(22500),
		PostingDate:       Date{now.AddDate(0, 0, -20)},
		DueDate:           Date{now.AddDate(0, 0, 10)},
	}

	m.contracts["CON-0001"] = Contract{
		Name:         "CON-0001",
		Party:        "CUST-0001",
		Project:      "PROJ-0001",
		ContractType: "NDA",
		Status:       "Active",
		IsSigned:     1,
		SignedBy:     "client@example.com",
		SignedOn:     Date{now.AddDate(0, -2, 0)},
	}
	m.contracts["CON-0002"] = Contract{
		Name:         "CON-0002",
		Party:        "CUST-0001",
		Project:      "PROJ-0002",
		ContractType: "NDA",
		Status:       "Unsigned",
		IsSigned:     0,
	}
	m.contracts["CON-0003"] = Contract{
		Name:         "CON-0003",
		Party:        "CUST-0001",
		Project:      "PROJ-0002",
		ContractType: "SOW",
		Status:       "Active",
		IsSigned:     1,
		SignedBy:     "client@example.com",
		SignedOn:     Date{now.AddDate(0, -1, 0)},
	}

	m.deliverables["DEL-0001"] = Deliverable{
		Name:       "DEL-0001",
		Project:    "PROJ-0001",
		Title:      "Market Diagnosis Report",
		Status:     "Released",
		Version:    "1.0",
		FileURL:    "/files/market-diagnosis-v1.pdf",
		ReleasedOn: Date{now.AddDate(0, 0, -5)},
	}
	m.deliverables["DEL-0002"] = Deliverable{
		Name:    "DEL-0002",
		Project: "PROJ-0002",
		Title:   "Architecture Blueprint",
		Status:  "In Review",
		Version: "0.3",
	}

	m.files["FILE-0001"] = File{
		Name:              "FILE-0001",
		FileName:          "market-diagnosis-v1.pdf",
		FileURL:           "/files/market-diagnosis-v1.pdf",
		FileSize:          482133,
		IsPrivate:         1,
		AttachedToDoctype: DoctypeDeliverable,
		AttachedToName:    "DEL-0001",
	}
}

// SetUnwired marks a doctype as unreachable for wiring probes (test hook)
func (m *MockClient) SetUnwired(doctype string, unwired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unwired[doctype] = unwired
}

// PutDeliverable inserts or replaces a deliverable (test hook)
func (m *MockClient) PutDeliverable(d Deliverable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverables[d.Name] = d
}

// Ping verifies upstream reachability
func (m *MockClient) Ping(context.Context) error {
	return nil
}

// ProbeDoctype reports whether a doctype is reachable
func (m *MockClient) ProbeDoctype(_ context.Context, doctype string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unwired[doctype], nil
}

// ListProjects returns the projects belonging to a customer
func (m *MockClient) ListProjects(_ context.Context, customerID string) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Project
	for _, p := range m.projects {
		if customerID == "" || p.Customer == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProject returns one project by name
func (m *MockClient) GetProject(_ context.Context, name string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListRequests returns the client requests raised against a project
func (m *MockClient) ListRequests(_ context.Context, projectID string) ([]ClientRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ClientRequest
	for _, r := range m.requests {
		if r.Project == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetRequest returns one client request by name
func (m *MockClient) GetRequest(_ context.Context, name string) (*ClientRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// CreateRequest raises a new client request
func (m *MockClient) CreateRequest(_ context.Context, req ClientRequest) (*ClientRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestSeq++
	req.Name = fmt.Sprintf("CR-%04d", m.requestSeq+1)
	if req.Status == "" {
		req.Status = "Open"
	}
	req.Created = Date{time.Now()}
	m.requests[req.Name] = req
	return &req, nil
}

// UpdateRequest applies field updates to a client request
func (m *MockClient) UpdateRequest(_ context.Context, name string, fields map[string]any) (*ClientRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[name]
	if !ok {
		return nil, ErrNotFound
	}
	for field, value := range fields {
		s, _ := value.(string)
		switch field {
		case "title":
			r.Title = s
		case "description":
			r.Description = s
		case "category":
			r.Category = s
		case "priority":
			r.Priority = s
		case "status":
			r.Status = s
		}
	}
	m.requests[name] = r
	return &r, nil
}

// ListInvoices returns invoices for a customer, optionally limited to one project
func (m *MockClient) ListInvoices(_ context.Context, customerID, projectID string) ([]SalesInvoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SalesInvoice
	for _, inv := range m.invoices {
		if inv.Customer != customerID {
			continue
		}
		if projectID != "" && inv.Project != projectID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// GetInvoice returns one invoice by name
func (m *MockClient) GetInvoice(_ context.Context, name string) (*SalesInvoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

// ListContracts returns contracts for a customer, optionally limited to one project
func (m *MockClient) ListContracts(_ context.Context, customerID, projectID string) ([]Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Contract
	for _, c := range m.contracts {
		if c.Party != customerID {
			continue
		}
		if projectID != "" && c.Project != projectID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetContract returns one contract by name
func (m *MockClient) GetContract(_ context.Context, name string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// SignContract marks a contract as executed
func (m *MockClient) SignContract(_ context.Context, name, signedBy string) (*Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[name]
	if !ok {
		return nil, ErrNotFound
	}
	c.IsSigned = 1
	c.SignedBy = signedBy
	c.SignedOn = Date{time.Now()}
	c.Status = "Active"
	m.contracts[name] = c
	return &c, nil
}

// ListDeliverables returns deliverables for a project
func (m *MockClient) ListDeliverables(_ context.Context, projectID string) ([]Deliverable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Deliverable
	for _, d := range m.deliverables {
		if d.Project == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetDeliverable returns one deliverable by name
func (m *MockClient) GetDeliverable(_ context.Context, name string) (*Deliverable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deliverables[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

// ListFiles returns the files attached to a document
func (m *MockClient) ListFiles(_ context.Context, doctype, docname string) ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []File
	for _, f := range m.files {
		if f.AttachedToDoctype == doctype && f.AttachedToName == docname {
			out = append(out, f)
		}
	}
	return out, nil
}

// UploadFile stores a file in memory
func (m *MockClient) UploadFile(_ context.Context, input UploadInput) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileSeq++
	f := File{
		Name:              fmt.Sprintf("FILE-%04d", m.fileSeq+1),
		FileName:          input.FileName,
		FileURL:           "/files/" + input.FileName,
		FileSize:          int64(len(input.Content)),
		AttachedToDoctype: input.AttachedToDoctype,
		AttachedToName:    input.AttachedToName,
	}
	if input.IsPrivate {
		f.IsPrivate = 1
	}
	m.files[f.Name] = f
	return &f, nil
}

// DownloadFile returns placeholder content for seeded files
func (m *MockClient) DownloadFile(_ context.Context, fileURL string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.FileURL == fileURL {
			content := []byte("mock content of " + strings.TrimPrefix(fileURL, "/files/"))
			return content, "application/octet-stream", nil
		}
	}
	return nil, "", ErrNotFound
}

var _ Client = (*MockClient)(nil)
