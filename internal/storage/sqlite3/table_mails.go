package sqlite3

import (
	"database/sql"
	"fmt"
	"time"
)

type TableMails struct {
	db         *sql.DB
	writer     *Writer
	createMail *sql.Stmt
	selectMail *sql.Stmt
	selectIDs  *sql.Stmt
	countMails *sql.Stmt
}

const mailsSchema = `
	CREATE TABLE IF NOT EXISTS mails (
		id			INTEGER NOT NULL,
		mail 		BLOB NOT NULL,
		datetime    INTEGER NOT NULL,
		PRIMARY KEY(id)
	);
`

const insertMailStmt = `
	INSERT INTO mails (id, mail, datetime) VALUES(
		(
			SELECT IFNULL(MAX(id)+1,1) AS id FROM mails
		), $1, $2
	)
	RETURNING id;
`

const selectMailStmt = `
	SELECT mail FROM mails WHERE id = $1
`

const selectIDsStmt = `
	SELECT id FROM mails ORDER BY id
`

const selectMailCountStmt = `
	SELECT COUNT(*) FROM mails
`

func NewTableMails(db *sql.DB, writer *Writer) (*TableMails, error) {
	t := &TableMails{
		db:     db,
		writer: writer,
	}
	_, err := db.Exec(mailsSchema)
	if err != nil {
		return nil, fmt.Errorf("db.Exec: %w", err)
	}
	t.createMail, err = db.Prepare(insertMailStmt)
	if err != nil {
		return nil, fmt.Errorf("db.Prepare(insertMailStmt): %w", err)
	}
	t.selectMail, err = db.Prepare(selectMailStmt)
	if err != nil {
		return nil, fmt.Errorf("db.Prepare(selectMailStmt): %w", err)
	}
	t.selectIDs, err = db.Prepare(selectIDsStmt)
	if err != nil {
		return nil, fmt.Errorf("db.Prepare(selectIDsStmt): %w", err)
	}
	t.countMails, err = db.Prepare(selectMailCountStmt)
	if err != nil {
		return nil, fmt.Errorf("db.Prepare(selectMailCountStmt): %w", err)
	}
	return t, nil
}

func (t *TableMails) MailCreate(data []byte) (int, error) {
	var id int
	err := t.writer.Do(func() error {
		return t.createMail.QueryRow(data, time.Now().Unix()).Scan(&id)
	})
	return id, err
}

func (t *TableMails) MailSelect(id int) ([]byte, error) {
	var data []byte
	err := t.selectMail.QueryRow(id).Scan(&data)
	return data, err
}

func (t *TableMails) MailIDs() ([]int, error) {
	rows, err := t.selectIDs.Query()
	if err != nil {
		return nil, fmt.Errorf("t.selectIDs.Query: %w", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *TableMails) MailCount() (int, error) {
	var count int
	err := t.countMails.QueryRow().Scan(&count)
	return count, err
}
