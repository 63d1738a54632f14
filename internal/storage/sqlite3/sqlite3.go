package sqlite3

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/atomic"
)

type SQLite3Storage struct {
	*TableMails
	db     *sql.DB
	writer *Writer
}

func NewSQLite3Storage(filename string) (*SQLite3Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	s := &SQLite3Storage{
		db: db,
		writer: &Writer{
			todo: make(chan writerTask),
		},
	}
	s.TableMails, err = NewTableMails(db, s.writer)
	if err != nil {
		return nil, fmt.Errorf("NewTableMails: %w", err)
	}
	return s, nil
}

func (s *SQLite3Storage) Close() error {
	return s.db.Close()
}

// Writer serialises all writes onto a single goroutine. The id for a new
// mail is computed inside the INSERT itself, so with writes serialised two
// concurrent stores can never observe the same free id.
type Writer struct {
	running atomic.Bool
	todo    chan writerTask
}

type writerTask struct {
	f    func() error
	wait chan error
}

func (w *Writer) Do(f func() error) error {
	if !w.running.Load() {
		go w.run()
	}
	task := writerTask{
		f:    f,
		wait: make(chan error, 1),
	}
	w.todo <- task
	return <-task.wait
}

func (w *Writer) run() {
	if !w.running.CAS(false, true) {
		return
	}
	defer w.running.Store(false)
	for task := range w.todo {
		task.wait <- task.f()
		close(task.wait)
	}
}
