// Package dns resolves the mail-exchange hosts for a recipient domain.
// Records are resolved fresh for every delivery attempt; there is no cache.
package dns

import (
	"context"
	"errors"
	"net"
	"sort"
)

var (
	// ErrNotFound means the domain has no MX records (or does not exist).
	ErrNotFound = errors.New("dns: no such record")
	// ErrServFail means the nameserver reported a failure.
	ErrServFail = errors.New("dns: server failure")
	// ErrRefused means the nameserver refused the query.
	ErrRefused = errors.New("dns: query refused")
	// ErrTimeout means the query did not complete in time.
	ErrTimeout = errors.New("dns: query timed out")
)

// Resolver looks up MX records for a domain.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// SortByPreference orders records ascending by preference value (lower is
// tried first), keeping the resolver's native order for equal preferences.
func SortByPreference(records []*net.MX) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})
}
