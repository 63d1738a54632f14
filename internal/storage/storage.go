// Package storage defines the message store. The store is append-only:
// every accepted message is persisted exactly once under a small monotonic
// identifier, and nothing in this system updates or deletes it afterwards.
package storage

type Storage interface {
	// MailCreate persists the raw message bytes and returns the assigned
	// identifier. Identifiers are unique and strictly increasing from 1,
	// including under concurrent callers.
	MailCreate(data []byte) (int, error)

	// MailSelect returns the stored content for an identifier.
	MailSelect(id int) ([]byte, error)

	// MailIDs enumerates all stored identifiers in ascending order.
	MailIDs() ([]int, error)

	// MailCount returns the number of stored messages.
	MailCount() (int, error)

	Close() error
}
