package models

import "time"

// AuditAction constants represent case-lifecycle actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionRegister       = "REGISTER"
	AuditActionUserApprove    = "USER_APPROVE"
	AuditActionUserReject     = "USER_REJECT"
	AuditActionReportCreate   = "REPORT_CREATE"
	AuditActionReportUpdate   = "REPORT_UPDATE"
	AuditActionReportAssign   = "REPORT_ASSIGN"
	AuditActionReportClassify = "REPORT_CLASSIFY"
	AuditActionReportClose    = "REPORT_CLOSE"
	AuditActionReportDelete   = "REPORT_DELETE"
	AuditActionDocumentUpload = "DOCUMENT_UPLOAD"
)

// AuditLog is an append-only trail record. Entries are never updated or
// deleted by normal flow.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	UserID    string    `db:"user_id" json:"user_id"`
	ReportID  *string   `db:"report_id" json:"report_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter captures filtering criteria for querying the audit trail.
type AuditFilter struct {
	Action   string
	UserID   string
	ReportID string
	Page     int
	PageSize int
}
