package task

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	deadline    TEXT NOT NULL,
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'Pending',
	email       TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);
`

const selectColumns = `SELECT id, title, description, deadline, priority, status, email, created_at FROM tasks`

// SQLiteStore persists tasks in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tasks table exists. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Insert validates nt and persists it as a pending task.
func (s *SQLiteStore) Insert(nt NewTask) (int64, error) {
	if err := nt.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`
		INSERT INTO tasks (title, description, deadline, priority, status, email, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		nt.Title, nt.Description, nt.Deadline.String(), string(nt.Priority),
		string(StatusPending), nt.Email, s.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// List returns every task in ID order.
func (s *SQLiteStore) List() ([]Task, error) {
	return s.query(selectColumns + ` ORDER BY id ASC`)
}

// Get retrieves a task by ID.
func (s *SQLiteStore) Get(id int64) (Task, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, notFound(id)
	}
	return t, err
}

// UpdateStatus sets the status of task id. Setting the current status again succeeds.
func (s *SQLiteStore) UpdateStatus(id int64, status Status) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	res, err := s.db.Exec(`UPDATE tasks SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(id)
	}
	return nil
}

// Delete removes a task by ID. Deleting a missing task fails with ErrNotFound.
func (s *SQLiteStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(id)
	}
	return nil
}

// Upcoming returns pending tasks whose deadline is on or before today+days.
// Overdue tasks are included.
func (s *SQLiteStore) Upcoming(today Date, days int) ([]Task, error) {
	limit := today.AddDays(days).String()
	return s.query(selectColumns+` WHERE status = ? AND deadline <= ? ORDER BY deadline ASC, id ASC`,
		string(StatusPending), limit)
}

func (s *SQLiteStore) query(q string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var t Task
	var deadline, priority, status string

	err := s.Scan(&t.ID, &t.Title, &t.Description, &deadline, &priority, &status, &t.Email, &t.CreatedAt)
	if err != nil {
		return Task{}, err
	}

	t.Priority = Priority(priority)
	if !t.Priority.Valid() {
		return Task{}, fmt.Errorf("task %d: priority %q: %w", t.ID, priority, ErrCorrupt)
	}
	t.Status = Status(status)
	if !t.Status.Valid() {
		return Task{}, fmt.Errorf("task %d: status %q: %w", t.ID, status, ErrCorrupt)
	}
	if t.Deadline, err = ParseDate(deadline); err != nil {
		return Task{}, fmt.Errorf("task %d: deadline %q: %w", t.ID, deadline, ErrCorrupt)
	}
	return t, nil
}
