package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportStatus tracks the case workflow state.
type ReportStatus string

const (
	ReportPending    ReportStatus = "PENDING"
	ReportInProgress ReportStatus = "IN_PROGRESS"
	ReportFalseAlarm ReportStatus = "FALSE_ALARM"
	ReportClosed     ReportStatus = "CLOSED"
)

// Urgency grades the severity declared on a report.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// ValidUrgency reports whether the given string is a known urgency level.
func ValidUrgency(s string) bool {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Urgent reports whether the urgency warrants an oversight notification fan-out.
func (u Urgency) Urgent() bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// AnonymousReporterName is substituted for the reporter identity whenever an
// anonymous report is read by anyone other than the reporter themself or an
// oversight-tier account.
const AnonymousReporterName = "Anonymous Reporter"

// Attachment is a stored file reference carried by a report.
type Attachment struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

// AttachmentList stores attachments as a JSONB column.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("attachments: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Report is the central incident case entity. Once IsArchived is set the
// report is terminal: no field may change, no document may be attached and
// deletion is refused.
type Report struct {
	ID              string         `db:"id" json:"id"`
	IncidentType    string         `db:"incident_type" json:"incident_type"`
	Urgency         Urgency        `db:"urgency" json:"urgency"`
	IsAnonymous     bool           `db:"is_anonymous" json:"is_anonymous"`
	VillageID       string         `db:"village_id" json:"village_id"`
	ChildName       string         `db:"child_name" json:"child_name"`
	AbuserName      *string        `db:"abuser_name" json:"abuser_name,omitempty"`
	Description     string         `db:"description" json:"description"`
	Attachments     AttachmentList `db:"attachments" json:"attachments"`
	Status          ReportStatus   `db:"status" json:"status"`
	ReporterID      string         `db:"reporter_id" json:"reporter_id"`
	ReporterName    string         `db:"reporter_name" json:"reporter_name"`
	AnalystID       *string        `db:"analyst_id" json:"analyst_id,omitempty"`
	IsArchived      bool           `db:"is_archived" json:"is_archived"`
	ClosureDecision *string        `db:"closure_decision" json:"closure_decision,omitempty"`
	ClosedAt        *time.Time     `db:"closed_at" json:"closed_at,omitempty"`
	Version         int            `db:"version" json:"version"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Redact strips the reporter identity from an anonymous report view.
func (r *Report) Redact() {
	r.ReporterID = ""
	r.ReporterName = AnonymousReporterName
}

// ReportFilter captures filtering criteria for listing reports.
type ReportFilter struct {
	Status     *ReportStatus
	Urgency    *Urgency
	VillageID  string
	ReporterID string
	AnalystID  string
	Archived   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
