package smtpsender

import (
	"errors"
	"fmt"
)

// ErrNoMXHosts is reported when the recipient domain resolves to no usable
// mail exchangers. No connection is attempted in that case.
var ErrNoMXHosts = errors.New("no MX hosts")

// ResolutionError means the recipient domain's MX set could not be
// resolved, or resolved to nothing. Recipient-scoped: it never aborts the
// session or other recipients.
type ResolutionError struct {
	Domain string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no MX hosts for %s: %v", e.Domain, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is makes every resolution failure match ErrNoMXHosts, since the delivery
// engine treats a failed lookup and an empty record set identically.
func (e *ResolutionError) Is(target error) bool { return target == ErrNoMXHosts }

// DeliveryError means a connection, authentication or transmission step
// failed against a specific target host.
type DeliveryError struct {
	Rcpt   string
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s via %s failed: %v", e.Rcpt, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
