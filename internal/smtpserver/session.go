package smtpserver

import (
	"fmt"
	"io"

	"github.com/emersion/go-smtp"
)

// errCouldNotStore is the only failure a submitting client ever sees:
// a temporary rejection when the message could not be persisted.
var errCouldNotStore = &smtp.SMTPError{
	Code:         451,
	EnhancedCode: smtp.EnhancedCode{4, 3, 0},
	Message:      "Could not store message",
}

type Session struct {
	backend *Backend
	state   *smtp.ConnectionState
	from    string
	rcpt    []string
}

func (s *Session) Mail(from string, opts smtp.MailOptions) error {
	s.rcpt = s.rcpt[:0]
	s.from = from
	return nil
}

func (s *Session) Rcpt(to string) error {
	s.rcpt = append(s.rcpt, to)
	return nil
}

// Data persists the message, then kicks off delivery in the background.
// The store must succeed before the client gets its reply; delivery
// outcomes are never awaited and never reported to the client.
func (s *Session) Data(r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	id, err := s.backend.Storage.MailCreate(content)
	if err != nil {
		s.backend.Log.Errorf("Failed to store message from %s: %v", s.from, err)
		return errCouldNotStore
	}
	s.backend.Log.Printf("Stored message %d from %s for %d recipient(s)", id, s.from, len(s.rcpt))

	rcpts := make([]string, len(s.rcpt))
	copy(rcpts, s.rcpt)
	go s.backend.Mailer.DeliverAll(rcpts, content)

	return nil
}

func (s *Session) Reset() {
	s.rcpt = s.rcpt[:0]
	s.from = ""
}

func (s *Session) Logout() error {
	return nil
}
