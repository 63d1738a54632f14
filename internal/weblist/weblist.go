// Package weblist exposes the stored messages over HTTP as plain text,
// which is all a developer poking at the relay usually needs.
package weblist

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gologme/log"

	"github.com/spoolmail/spoolmail/internal/storage"
)

const defaultPreviewLines = 20

// Server renders the message store. Read-only: it never mutates the store.
type Server struct {
	Log     *log.Logger
	Storage storage.Storage

	// Lines is how many lines of each message to show. Zero means 20.
	Lines int
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", s.handleMessages)
	return mux
}

// handleMessages prints every stored message in identifier order, each
// introduced by a "--- msg-<id>.eml ---" banner and truncated to the
// configured number of lines.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	ids, err := s.Storage.MailIDs()
	if err != nil {
		s.Log.Errorf("Failed to enumerate messages: %v", err)
		http.Error(w, "could not list messages", http.StatusInternalServerError)
		return
	}
	if len(ids) == 0 {
		fmt.Fprint(w, "No messages")
		return
	}

	var sections []string
	for _, id := range ids {
		mail, err := s.Storage.MailSelect(id)
		if err != nil {
			s.Log.Warnf("Failed to read message %d: %v", id, err)
			continue
		}
		sections = append(sections, fmt.Sprintf("--- msg-%d.eml ---\n%s", id, s.preview(mail)))
	}
	fmt.Fprint(w, strings.Join(sections, "\n\n"))
}

func (s *Server) preview(mail []byte) string {
	n := s.Lines
	if n <= 0 {
		n = defaultPreviewLines
	}
	text := strings.ReplaceAll(string(mail), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
