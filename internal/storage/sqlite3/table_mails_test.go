package sqlite3

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/spoolmail/spoolmail/internal/storage"
)

func openTestStorage(t *testing.T) *SQLite3Storage {
	t.Helper()
	s, err := NewSQLite3Storage(filepath.Join(t.TempDir(), "spoolmail.db"))
	if err != nil {
		t.Fatalf("NewSQLite3Storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageInterface(t *testing.T) {
	var _ storage.Storage = (*SQLite3Storage)(nil)
}

func TestMailCreateRoundTrip(t *testing.T) {
	s := openTestStorage(t)

	content := []byte("From: a@example.com\r\nSubject: hi\r\n\r\nbody\r\n")
	id, err := s.MailCreate(content)
	if err != nil {
		t.Fatalf("MailCreate: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}

	got, err := s.MailSelect(id)
	if err != nil {
		t.Fatalf("MailSelect: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("stored content differs: got %q, want %q", got, content)
	}
}

func TestMailCreateSequentialIDs(t *testing.T) {
	s := openTestStorage(t)

	for i := 1; i <= 10; i++ {
		id, err := s.MailCreate([]byte(fmt.Sprintf("message %d", i)))
		if err != nil {
			t.Fatalf("MailCreate #%d: %v", i, err)
		}
		if id != i {
			t.Errorf("id #%d = %d, want %d", i, id, i)
		}
	}

	ids, err := s.MailIDs()
	if err != nil {
		t.Fatalf("MailIDs: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("MailIDs returned %d ids, want 10", len(ids))
	}
	if !sort.IntsAreSorted(ids) {
		t.Errorf("MailIDs not ascending: %v", ids)
	}
}

func TestMailCreateConcurrentIDsDistinct(t *testing.T) {
	s := openTestStorage(t)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan int, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.MailCreate([]byte(fmt.Sprintf("concurrent %d", i)))
			if err != nil {
				errs <- err
				return
			}
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("MailCreate: %v", err)
	}

	seen := make(map[int]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Errorf("id %d missing from assigned set", i)
		}
	}
}

func TestMailCount(t *testing.T) {
	s := openTestStorage(t)

	if count, err := s.MailCount(); err != nil || count != 0 {
		t.Fatalf("MailCount on empty store = %d, %v; want 0, nil", count, err)
	}
	if _, err := s.MailCreate([]byte("one")); err != nil {
		t.Fatalf("MailCreate: %v", err)
	}
	if count, err := s.MailCount(); err != nil || count != 1 {
		t.Fatalf("MailCount = %d, %v; want 1, nil", count, err)
	}
}

func TestMailSelectMissing(t *testing.T) {
	s := openTestStorage(t)
	if _, err := s.MailSelect(42); err == nil {
		t.Fatal("MailSelect(42) on empty store: expected error")
	}
}
