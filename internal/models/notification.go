package models

import "time"

// NotificationCategory labels the case event that produced a notification.
type NotificationCategory string

const (
	NotifUrgentReport NotificationCategory = "URGENT_REPORT"
	NotifAssignment   NotificationCategory = "ASSIGNMENT"
	NotifCaseClosed   NotificationCategory = "CASE_CLOSED"
	NotifAccount      NotificationCategory = "ACCOUNT"
)

// Notification is delivered to a single recipient, optionally referencing a
// report. Delivery is asynchronous relative to the triggering operation.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	RecipientID string               `db:"recipient_id" json:"recipient_id"`
	Category    NotificationCategory `db:"category" json:"category"`
	Title       string               `db:"title" json:"title"`
	Body        string               `db:"body" json:"body"`
	ReportID    *string              `db:"report_id" json:"report_id,omitempty"`
	Read        bool                 `db:"read" json:"read"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}
