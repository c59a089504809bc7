package auth

import (
	"fmt"
	"log"
	"os"
)

// Mailer delivers password-reset links out-of-band.
type Mailer interface {
	SendPasswordResetLink(email, resetLink string) error
}

// LogMailer appends outgoing mail to a log file instead of sending real
// email. It stands in for an SMTP integration.
type LogMailer struct {
	path string
}

// NewLogMailer creates a LogMailer writing to the given file path.
func NewLogMailer(path string) *LogMailer {
	return &LogMailer{path: path}
}

// SendPasswordResetLink records the reset link for the address.
func (m *LogMailer) SendPasswordResetLink(email, resetLink string) error {
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open email log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "To: %s | Link: %s\n", email, resetLink); err != nil {
		return fmt.Errorf("failed to write email log: %w", err)
	}

	log.Printf("[auth] Password reset email sent to %s", email)
	return nil
}
