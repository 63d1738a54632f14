package dns

import (
	"context"
	"errors"
	"net"
	"strings"
)

// StdResolver implements Resolver using the standard library net package.
// Useful when the process should follow the host's resolver behaviour
// exactly (including /etc/hosts and nsswitch).
type StdResolver struct {
	resolver *net.Resolver
}

// NewStdResolver creates a resolver using the standard library.
func NewStdResolver() *StdResolver {
	return &StdResolver{
		resolver: net.DefaultResolver,
	}
}

// LookupMX retrieves MX records using the standard library.
func (r *StdResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	name = strings.TrimSuffix(name, ".")

	records, err := r.resolver.LookupMX(ctx, name)
	if err != nil {
		return nil, convertError(err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	for _, mx := range records {
		mx.Host = strings.TrimSuffix(mx.Host, ".")
	}
	return records, nil
}

// convertError converts standard library DNS errors to package errors.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ErrNotFound
		}
		if dnsErr.IsTimeout {
			return ErrTimeout
		}
		if dnsErr.IsTemporary {
			return ErrServFail
		}
	}

	return err
}
