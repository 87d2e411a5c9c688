package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
}

// NotificationService persists and queries notifications. It implements the
// case event sink consumed by the report engine; every sink method is
// best-effort and never fails the triggering operation.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
}

// NewNotificationService creates an instance of NotificationService.
func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// ListForRecipient returns a recipient's notifications.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]models.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// MarkRead flags one notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification of a recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	if err := s.repo.MarkAllRead(ctx, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// ReportFiled fans out an urgent-report notification to the oversight tier.
func (s *NotificationService) ReportFiled(ctx context.Context, report *models.Report, recipientIDs []string) {
	title := fmt.Sprintf("%s incident reported", report.Urgency)
	body := fmt.Sprintf("A new %s incident was reported and needs attention.", report.IncidentType)
	for _, recipientID := range recipientIDs {
		s.deliver(ctx, &models.Notification{
			RecipientID: recipientID,
			Category:    models.NotifUrgentReport,
			Title:       title,
			Body:        body,
			ReportID:    &report.ID,
		})
	}
}

// ReportAssigned notifies the analyst now responsible for the case.
func (s *NotificationService) ReportAssigned(ctx context.Context, report *models.Report, analystID string) {
	s.deliver(ctx, &models.Notification{
		RecipientID: analystID,
		Category:    models.NotifAssignment,
		Title:       "Case assigned to you",
		Body:        fmt.Sprintf("You have been assigned a %s incident case.", report.IncidentType),
		ReportID:    &report.ID,
	})
}

// CaseClosed notifies the reporter that their case reached a decision.
func (s *NotificationService) CaseClosed(ctx context.Context, report *models.Report) {
	if report.ReporterID == "" {
		return
	}
	s.deliver(ctx, &models.Notification{
		RecipientID: report.ReporterID,
		Category:    models.NotifCaseClosed,
		Title:       "Case closed",
		Body:        "A case you reported has been formally closed.",
		ReportID:    &report.ID,
	})
}

// AccountDecision notifies a user that their registration was decided.
func (s *NotificationService) AccountDecision(ctx context.Context, userID string, approved bool) {
	title := "Account approved"
	body := "Your registration has been approved. You can now sign in."
	if !approved {
		title = "Account rejected"
		body = "Your registration has been rejected."
	}
	s.deliver(ctx, &models.Notification{
		RecipientID: userID,
		Category:    models.NotifAccount,
		Title:       title,
		Body:        body,
	})
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to deliver notification",
			zap.String("recipient_id", n.RecipientID),
			zap.String("category", string(n.Category)),
			zap.Error(err))
	}
}
