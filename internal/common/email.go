package common

// EmailSender sends a single HTML email. The operations mailer behind it is
// deployment-specific; alerts only need this much surface.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is a message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records messages instead of sending them.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender drops every message. Used where no mailer is configured.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
