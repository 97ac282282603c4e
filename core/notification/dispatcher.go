package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/sponsorship"
)

// Events
const (
	EventAssessmentCreated  = "assessment_created"
	EventSponsorshipCreated = "sponsorship_created"
)

var (
	_ assessment.Notifier  = (*Dispatcher)(nil)
	_ sponsorship.Notifier = (*Dispatcher)(nil)

	noRecipientsMessages = map[string]string{
		EventAssessmentCreated:  "No students have email addresses",
		EventSponsorshipCreated: "No email addresses",
	}
)

// NoRecipientsError is returned by Deliver when an event has nobody to email.
type NoRecipientsError struct {
	Event string
}

func (err NoRecipientsError) Error() string {
	if msg, ok := noRecipientsMessages[err.Event]; ok {
		return msg
	}
	return "No email addresses"
}

func IsNoRecipients(err error) bool {
	_, ok := errors.Cause(err).(*NoRecipientsError)
	return ok
}

// DeliveryError wraps a failure of the email transport.
type DeliveryError struct {
	Event string
	Err   error
}

func (err DeliveryError) Error() string {
	return err.Err.Error()
}

func IsDeliveryError(err error) bool {
	_, ok := errors.Cause(err).(*DeliveryError)
	return ok
}

type (
	EnrollmentQuerier interface {
		QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter, exec ...core.DBExecutor) ([]enrollment.Enrollment, error)
	}

	// Dispatcher derives the recipients of domain events, records their notifications and emails them.
	Dispatcher struct {
		repo        Repository
		enrollments EnrollmentQuerier
		mailer      core.EmailService
		metrics     *Metrics
	}
)

func NewDispatcher(repo Repository, enrollments EnrollmentQuerier, mailer core.EmailService, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		enrollments: enrollments,
		mailer:      mailer,
		metrics:     metrics,
	}
}

func (d *Dispatcher) notify(ctx context.Context, userID int64, msg string, exec core.DBExecutor) error {
	_, err := d.repo.CreateNotification(ctx, Notification{
		UserID:    userID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}, exec)
	return errors.Wrapf(err, "creating notification for user %d", userID)
}

// AssessmentCreated notifies every student enrolled in the assessment's course, once per student,
// and prepares one email per student that has an email address.
func (d *Dispatcher) AssessmentCreated(ctx context.Context, a assessment.Assessment, exec core.DBExecutor) (core.Outbox, error) {
	outbox := core.Outbox{Event: EventAssessmentCreated}

	enrollments, err := d.enrollments.QueryEnrollments(ctx, enrollment.QueryFilter{CourseID: a.CourseID}, exec)
	if err != nil {
		return outbox, errors.Wrap(err, "querying enrollments")
	}

	msg := fmt.Sprintf("New Assessment: %s - %s", a.Title, a.Description)
	seen := make(map[int64]bool, len(enrollments))
	for _, e := range enrollments {
		if seen[e.StudentID] {
			continue
		}
		seen[e.StudentID] = true

		if err = d.notify(ctx, e.StudentID, msg, exec); err != nil {
			return outbox, err
		}
		if e.StudentEmail == "" {
			continue
		}
		outbox.Messages = append(outbox.Messages, &core.EmailMessage{
			To:           []mail.Address{{Address: e.StudentEmail}},
			Subject:      "New Assessment: " + a.Title,
			TemplateName: "new_assessment",
			TemplateData: map[string]interface{}{
				"Title":       a.Title,
				"Description": a.Description,
				"DueDate":     a.DueDate.String(),
			},
		})
	}
	d.metrics.notificationsCreated(outbox.Event, len(seen))
	return outbox, nil
}

// SponsorshipCreated notifies the sponsor and prepares the thank-you email.
func (d *Dispatcher) SponsorshipCreated(ctx context.Context, s sponsorship.Sponsorship, exec core.DBExecutor) (core.Outbox, error) {
	outbox := core.Outbox{Event: EventSponsorshipCreated}
	amount := s.Amount.StringFixed(2)

	msg := fmt.Sprintf("New Sponsorship: %s - %s", amount, s.StudentEmail)
	if err := d.notify(ctx, s.SponsorID, msg, exec); err != nil {
		return outbox, err
	}
	d.metrics.notificationsCreated(outbox.Event, 1)

	if s.SponsorEmail != "" {
		outbox.Messages = append(outbox.Messages, &core.EmailMessage{
			To:           []mail.Address{{Address: s.SponsorEmail}},
			Subject:      "Sponsorship for : " + s.StudentEmail,
			TemplateName: "new_sponsorship",
			TemplateData: map[string]interface{}{
				"StudentEmail": s.StudentEmail,
				"Amount":       amount,
				"FundedAt":     s.FundedAt.Format(time.RFC3339),
			},
		})
	}
	return outbox, nil
}

// Deliver sends the emails of outbox synchronously.
// It returns a *NoRecipientsError when outbox is empty and a *DeliveryError when the transport fails.
func (d *Dispatcher) Deliver(ctx context.Context, outbox core.Outbox) error {
	if len(outbox.Messages) == 0 {
		return &NoRecipientsError{Event: outbox.Event}
	}
	if err := d.mailer.SendMessages(ctx, outbox.Messages...); err != nil {
		d.metrics.emailsSent(outbox.Event, outcomeFailed, len(outbox.Messages))
		return &DeliveryError{Event: outbox.Event, Err: err}
	}
	d.metrics.emailsSent(outbox.Event, outcomeSent, len(outbox.Messages))
	return nil
}
