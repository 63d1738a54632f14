package smtpsender

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/gologme/log"

	"github.com/spoolmail/spoolmail/internal/config"
	"github.com/spoolmail/spoolmail/internal/dns"
)

const (
	defaultMXPort       = 25
	defaultRelayTimeout = 60 * time.Second
	defaultMXTimeout    = 30 * time.Second
)

// Mailer performs best-effort outbound delivery for stored messages. Each
// recipient gets exactly one delivery sequence: the configured relay first
// when present, then the recipient domain's MX hosts in ascending
// preference order. There is no retry, no queue and no bounce; a recipient
// that cannot be reached is logged and forgotten.
type Mailer struct {
	Config   *config.Config
	Log      *log.Logger
	Resolver dns.Resolver

	// MXPort is the port used for direct MX delivery. Zero means 25.
	MXPort int

	// Dial makes outbound connections. Tests swap it to route fake MX
	// hosts to local listeners. Nil means net.DialTimeout.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)

	RelayTimeout time.Duration
	MXTimeout    time.Duration
}

func NewMailer(cfg *config.Config, logger *log.Logger, resolver dns.Resolver) *Mailer {
	return &Mailer{
		Config:   cfg,
		Log:      logger,
		Resolver: resolver,
	}
}

// DeliverAll runs one delivery sequence for every recipient of a message.
// This is the recipient-processing boundary: each recipient's outcome is
// logged here and goes no further, so one unreachable recipient never
// affects the others and nothing is reported back to the submitting client.
func (m *Mailer) DeliverAll(rcpts []string, content []byte) {
	ctx := context.Background()
	for _, rcpt := range rcpts {
		if err := m.Deliver(ctx, rcpt, content); err != nil {
			m.Log.Warnf("Delivery attempt failed for %s: %v", rcpt, err)
			continue
		}
		m.Log.Printf("Delivered message to %s", rcpt)
	}
}

// Deliver attempts delivery to a single recipient: relay first when
// configured, then direct MX. The returned error is a *DeliveryError or
// *ResolutionError describing the terminal failure.
func (m *Mailer) Deliver(ctx context.Context, rcpt string, content []byte) error {
	from := EnvelopeFrom(m.Config.Relay, content)

	if relay := m.Config.Relay; relay != nil {
		if err := m.deliverViaRelay(relay, from, rcpt, content); err != nil {
			m.Log.Warnf("Relay delivery to %s via %s failed: %v", rcpt, relay.Host, err)
		} else {
			m.Log.Printf("Delivered message to %s via relay %s", rcpt, relay.Host)
			return nil
		}
	}

	return m.deliverViaMX(ctx, from, rcpt, content)
}

func (m *Mailer) deliverViaRelay(relay *config.Relay, from, rcpt string, content []byte) error {
	addr := relay.Addr()

	conn, err := m.dial(addr, m.relayTimeout())
	if err != nil {
		return &DeliveryError{Rcpt: rcpt, Target: addr, Err: err}
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(m.relayTimeout()))

	client, err := smtp.NewClient(conn, relay.Host)
	if err != nil {
		return &DeliveryError{Rcpt: rcpt, Target: addr, Err: fmt.Errorf("smtp.NewClient: %w", err)}
	}
	defer client.Close()

	if err := client.Hello(m.hostname()); err != nil {
		return &DeliveryError{Rcpt: rcpt, Target: addr, Err: fmt.Errorf("client.Hello: %w", err)}
	}

	if relay.UseStartTLS() {
		if err := client.StartTLS(&tls.Config{ServerName: relay.Host}); err != nil {
			return &DeliveryError{Rcpt: rcpt, Target: addr, Err: fmt.Errorf("client.StartTLS: %w", err)}
		}
	}

	if relay.Username != "" && relay.Password != "" {
		auth := sasl.NewPlainClient("", relay.Username, relay.Password)
		if err := client.Auth(auth); err != nil {
			return &DeliveryError{Rcpt: rcpt, Target: addr, Err: fmt.Errorf("client.Auth: %w", err)}
		}
	}

	if err := m.transmit(client, from, rcpt, content); err != nil {
		return &DeliveryError{Rcpt: rcpt, Target: addr, Err: err}
	}
	return nil
}

func (m *Mailer) deliverViaMX(ctx context.Context, from, rcpt string, content []byte) error {
	domain, err := domainOf(rcpt)
	if err != nil {
		return &DeliveryError{Rcpt: rcpt, Target: rcpt, Err: err}
	}

	records, err := m.Resolver.LookupMX(ctx, domain)
	if err != nil {
		return &ResolutionError{Domain: domain, Err: err}
	}
	if len(records) == 0 {
		return &ResolutionError{Domain: domain, Err: dns.ErrNotFound}
	}
	dns.SortByPreference(records)

	var lastErr error
	for _, mx := range records {
		addr := net.JoinHostPort(mx.Host, strconv.Itoa(m.mxPort()))
		m.Log.Printf("Attempting delivery of %s to %s (MX %s)", rcpt, domain, mx.Host)

		if err := m.deliverPlain(addr, mx.Host, from, rcpt, content); err != nil {
			m.Log.Warnf("Delivery to %s via %s failed: %v", rcpt, mx.Host, err)
			lastErr = &DeliveryError{Rcpt: rcpt, Target: mx.Host, Err: err}
			continue
		}
		return nil
	}
	return lastErr
}

// deliverPlain performs a plaintext connect-and-send against one MX host.
func (m *Mailer) deliverPlain(addr, host, from, rcpt string, content []byte) error {
	conn, err := m.dial(addr, m.mxTimeout())
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(m.mxTimeout()))

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp.NewClient: %w", err)
	}
	defer client.Close()

	if err := client.Hello(m.hostname()); err != nil {
		return fmt.Errorf("client.Hello: %w", err)
	}

	return m.transmit(client, from, rcpt, content)
}

// transmit runs the MAIL/RCPT/DATA/QUIT sequence on an announced client.
func (m *Mailer) transmit(client *smtp.Client, from, rcpt string, content []byte) error {
	if err := client.Mail(from, nil); err != nil {
		return fmt.Errorf("client.Mail: %w", err)
	}
	if err := client.Rcpt(rcpt); err != nil {
		return fmt.Errorf("client.Rcpt: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("client.Data: %w", err)
	}
	if _, err := writer.Write(content); err != nil {
		writer.Close() // nolint:errcheck
		return fmt.Errorf("writer.Write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("writer.Close: %w", err)
	}
	return client.Quit()
}

// domainOf extracts the recipient domain, the part after the first "@".
func domainOf(rcpt string) (string, error) {
	at := strings.Index(rcpt, "@")
	if at < 0 || at == len(rcpt)-1 {
		return "", fmt.Errorf("recipient %q has no domain", rcpt)
	}
	return rcpt[at+1:], nil
}

func (m *Mailer) dial(addr string, timeout time.Duration) (net.Conn, error) {
	if m.Dial != nil {
		return m.Dial("tcp", addr, timeout)
	}
	return net.DialTimeout("tcp", addr, timeout)
}

func (m *Mailer) hostname() string {
	if m.Config.SMTP.Hostname != "" {
		return m.Config.SMTP.Hostname
	}
	return "local-relay"
}

func (m *Mailer) mxPort() int {
	if m.MXPort != 0 {
		return m.MXPort
	}
	return defaultMXPort
}

func (m *Mailer) relayTimeout() time.Duration {
	if m.RelayTimeout != 0 {
		return m.RelayTimeout
	}
	return defaultRelayTimeout
}

func (m *Mailer) mxTimeout() time.Duration {
	if m.MXTimeout != 0 {
		return m.MXTimeout
	}
	return defaultMXTimeout
}
