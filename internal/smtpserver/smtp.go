package smtpserver

import (
	"github.com/emersion/go-smtp"
)

// NewServer builds the inbound listener around a backend. Sessions are
// anonymous and plaintext: this surface exists for local development, not
// for the open internet.
func NewServer(backend *Backend) *smtp.Server {
	server := smtp.NewServer(backend)
	server.Addr = backend.Config.SMTP.Listen
	server.Domain = backend.Config.SMTP.Hostname
	server.MaxMessageBytes = int(backend.Config.SMTP.MaxMessageSize)
	server.MaxRecipients = backend.Config.SMTP.MaxRecipients
	server.AuthDisabled = true
	return server
}
