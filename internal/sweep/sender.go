package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/phrazzld/taskmgr-api/internal/domain"
)

// NotificationSubject is the subject line of every due-task email.
const NotificationSubject = "Your task is due!"

// ErrInvalidAddress is returned for recipients that are not valid email
// addresses. It is never retried.
var ErrInvalidAddress = errors.New("invalid recipient address")

// Transport delivers one HTML email.
type Transport interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<h2>Task Due Alert</h2>
<p><strong>Task:</strong> {{.Description}}</p>
<p><strong>Due Date:</strong> {{.DueDate}}</p>
<p>Please complete it soon.</p>
`))

// Sender formats due-task notices and hands them to a Transport.
type Sender struct {
	transport Transport
}

// NewSender creates a Sender that delivers through transport.
func NewSender(transport Transport) *Sender {
	return &Sender{transport: transport}
}

// Send emails one due-task notice to the given address.
func (s *Sender) Send(ctx context.Context, to, description string, dueDate time.Time) error {
	if !domain.IsValidEmail(to) {
		return ErrInvalidAddress
	}

	body, err := RenderNotice(description, dueDate)
	if err != nil {
		return err
	}

	if err := s.transport.Send(ctx, to, NotificationSubject, body); err != nil {
		return fmt.Errorf("failed to send due-task notice: %w", err)
	}
	return nil
}

// RenderNotice returns the HTML body for a due-task notice. The description
// is HTML-escaped.
func RenderNotice(description string, dueDate time.Time) (string, error) {
	var buf bytes.Buffer
	err := noticeTemplate.Execute(&buf, struct {
		Description string
		DueDate     string
	}{
		Description: description,
		DueDate:     FormatDueDate(dueDate),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render due-task notice: %w", err)
	}
	return buf.String(), nil
}

// FormatDueDate renders a due date in UTC, or "Not set" for the zero time.
func FormatDueDate(t time.Time) string {
	if t.IsZero() {
		return "Not set"
	}
	return t.UTC().Format("January 2, 2006 at 3:04 PM UTC")
}
