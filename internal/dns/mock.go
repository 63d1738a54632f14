package dns

import (
	"context"
	"net"
	"slices"
	"strings"
)

// MockResolver is a Resolver used for testing. MX maps domains (without
// trailing dot) to records in resolver-native order.
type MockResolver struct {
	MX map[string][]*net.MX

	// Fail contains domains whose lookup returns a temporary failure.
	Fail []string
}

var _ Resolver = MockResolver{}

// LookupMX returns the configured MX records for the given domain.
func (r MockResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSuffix(name, ".")
	if slices.Contains(r.Fail, name) {
		return nil, ErrServFail
	}

	records, ok := r.MX[name]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}

	// Copy so callers sorting the result don't mutate the fixture.
	out := make([]*net.MX, len(records))
	for i, mx := range records {
		c := *mx
		out[i] = &c
	}
	return out, nil
}
