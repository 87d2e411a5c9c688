package models

import "time"

// DocumentType enumerates the procedure-step document kinds attached to a
// case file. CLOSURE_DECISION is the gate checked before formal archival.
type DocumentType string

const (
	DocDPE             DocumentType = "DPE"
	DocMedicalReport   DocumentType = "MEDICAL_REPORT"
	DocPsychReport     DocumentType = "PSYCH_REPORT"
	DocPoliceReport    DocumentType = "POLICE_REPORT"
	DocClosureDecision DocumentType = "CLOSURE_DECISION"
)

// ValidDocumentType reports whether the given string is a known document kind.
func ValidDocumentType(s string) bool {
	switch DocumentType(s) {
	case DocDPE, DocMedicalReport, DocPsychReport, DocPoliceReport, DocClosureDecision:
		return true
	}
	return false
}

// UploadPermission maps a document kind to the permission required to attach it.
func (t DocumentType) UploadPermission() Permission {
	switch t {
	case DocDPE:
		return PermDocUploadDPE
	case DocMedicalReport:
		return PermDocUploadMedical
	case DocPsychReport:
		return PermDocUploadPsych
	case DocPoliceReport:
		return PermDocUploadPolice
	case DocClosureDecision:
		return PermDocUploadClosure
	}
	return ""
}

// Document is a procedure-step file attached to a report. Documents are
// append-only while the report is not archived.
type Document struct {
	ID         string       `db:"id" json:"id"`
	Type       DocumentType `db:"type" json:"type"`
	FileURL    string       `db:"file_url" json:"file_url"`
	UploadedBy string       `db:"uploaded_by" json:"uploaded_by"`
	ReportID   string       `db:"report_id" json:"report_id"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
