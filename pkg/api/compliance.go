package api

import "encoding/json"

// Workflow job statuses as relayed to the client. Pending and Processing
// mean keep polling; Success and Failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether a job status allows no further change.
func TerminalStatus(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}

type ComplianceCheckRequest struct {
	ImageURLs     []string `json:"image_urls" validate:"required"` // Product image and label URLs
	CoaURLs       []string `json:"coa_urls"`                       // Certificate-of-analysis PDF URLs
	Jurisdictions []string `json:"jurisdictions" validate:"required"`
	CompanyName   string   `json:"company_name"`
	ProductType   string   `json:"product_type"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
}

type ComplianceCheckResponse struct {
	RequestID string `json:"request_id"` // Workflow job id, poll with it
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

type ComplianceResultResponse struct {
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`  // Nested compliance result on success
	Error     string          `json:"error,omitempty"` // Upstream error message on failure
	Message   string          `json:"message,omitempty"`
}

// ComplianceItem is one rule evaluation inside the workflow result. Ref
// carries the statute/regulation citation the rule derives from.
type ComplianceItem struct {
	Item   string `json:"item,omitempty"`
	Status string `json:"status,omitempty"`
	Ref    string `json:"ref,omitempty"`
	URL    string `json:"url,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type ComplianceCheckSection struct {
	Jurisdiction string           `json:"jurisdiction,omitempty"`
	Label        []ComplianceItem `json:"label,omitempty"`
	Coa          []ComplianceItem `json:"coa,omitempty"`
}

type ComplianceResult struct {
	ComplianceCheck []ComplianceCheckSection `json:"compliance_check,omitempty"`
	Summary         string                   `json:"summary,omitempty"`
}
