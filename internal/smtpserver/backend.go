package smtpserver

import (
	"fmt"

	"github.com/emersion/go-smtp"
	"github.com/gologme/log"

	"github.com/spoolmail/spoolmail/internal/config"
	"github.com/spoolmail/spoolmail/internal/storage"
)

// Deliverer starts the outbound delivery sequence for every recipient of a
// stored message. Implemented by smtpsender.Mailer.
type Deliverer interface {
	DeliverAll(rcpts []string, content []byte)
}

type Backend struct {
	Log     *log.Logger
	Config  *config.Config
	Storage storage.Storage
	Mailer  Deliverer
}

// Login is never reached: the server runs with authentication disabled.
func (b *Backend) Login(state *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	return nil, fmt.Errorf("authentication is not supported")
}

func (b *Backend) AnonymousLogin(state *smtp.ConnectionState) (smtp.Session, error) {
	if state != nil {
		b.Log.Debugf("Incoming SMTP session from %s", state.RemoteAddr)
	}
	return &Session{
		backend: b,
		state:   state,
	}, nil
}
