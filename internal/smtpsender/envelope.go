package smtpsender

import (
	"bytes"
	"strings"

	"github.com/emersion/go-message"

	"github.com/spoolmail/spoolmail/internal/config"
)

// DefaultEnvelopeFrom is used when neither a relay account nor a usable
// From header is available.
const DefaultEnvelopeFrom = "postmaster@localhost"

// EnvelopeFrom derives the outbound MAIL FROM address for a message. A
// configured relay username always wins, since many relays require the
// envelope sender to match the authenticated account. Otherwise the
// message's own From header is used, falling back to DefaultEnvelopeFrom.
// Header parse failures fall through to the default silently.
func EnvelopeFrom(relay *config.Relay, content []byte) string {
	if relay != nil && relay.Username != "" {
		return relay.Username
	}

	// message.Read can return a usable entity alongside an error (for
	// example an unknown charset); the header is all that matters here.
	m, _ := message.Read(bytes.NewReader(content))
	if m == nil {
		return DefaultEnvelopeFrom
	}

	from := m.Header.Get("From")
	if !strings.Contains(from, "@") {
		return DefaultEnvelopeFrom
	}

	fields := strings.Fields(from)
	if len(fields) == 0 {
		return DefaultEnvelopeFrom
	}
	return strings.Trim(fields[len(fields)-1], "<>")
}
