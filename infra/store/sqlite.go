package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/studyplan/core/model"
	corestore "github.com/kilianp07/studyplan/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    title TEXT,
    estimated_minutes INTEGER,
    deadline INTEGER,
    PRIMARY KEY(user_id, id)
);
CREATE TABLE IF NOT EXISTS events (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    title TEXT,
    start_ts INTEGER,
    end_ts INTEGER,
    PRIMARY KEY(user_id, id)
);
CREATE TABLE IF NOT EXISTS plans (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT,
    user_id TEXT NOT NULL,
    created_ts INTEGER,
    record TEXT
);
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    block_id TEXT,
    status TEXT,
    start_ts INTEGER,
    end_ts INTEGER,
    focus REAL
);
CREATE INDEX IF NOT EXISTS plans_user_created ON plans (user_id, created_ts);
CREATE INDEX IF NOT EXISTS sessions_user ON sessions (user_id, start_ts);`

// SQLiteStore persists planner state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ corestore.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	// serialise writers; sqlite locks the whole file anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, unavailable("schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", corestore.ErrStorageUnavailable, op, err)
}

func toTS(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromTS(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(0, ts).UTC()
}

func (s *SQLiteStore) SaveTask(ctx context.Context, t model.Task) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (user_id, id, title, estimated_minutes, deadline)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(user_id, id) DO UPDATE SET
            title = excluded.title,
            estimated_minutes = excluded.estimated_minutes,
            deadline = excluded.deadline`,
		t.UserID, t.ID, t.Title, t.EstimatedMinutes, toTS(t.Deadline))
	if err != nil {
		return unavailable("save task", err)
	}
	return nil
}

func (s *SQLiteStore) Tasks(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, estimated_minutes, deadline
        FROM tasks WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, unavailable("query tasks", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Task
	for rows.Next() {
		t := model.Task{UserID: userID}
		var deadline int64
		if err := rows.Scan(&t.ID, &t.Title, &t.EstimatedMinutes, &deadline); err != nil {
			return nil, unavailable("scan task", err)
		}
		t.Deadline = fromTS(deadline)
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query tasks", err)
	}
	return res, nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, taskID)
	if err != nil {
		return unavailable("delete task", err)
	}
	return expectRow(res, "task "+taskID)
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, corestore.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SaveEvents(ctx context.Context, userID string, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (user_id, id, title, start_ts, end_ts)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(user_id, id) DO UPDATE SET
            title = excluded.title,
            start_ts = excluded.start_ts,
            end_ts = excluded.end_ts`)
	if err != nil {
		return unavailable("prepare", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, userID, e.ID, e.Title, toTS(e.Start), toTS(e.End)); err != nil {
			return unavailable("save event", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (s *SQLiteStore) Events(ctx context.Context, userID string) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, start_ts, end_ts
        FROM events WHERE user_id = ? ORDER BY start_ts, id`, userID)
	if err != nil {
		return nil, unavailable("query events", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Event
	for rows.Next() {
		e := model.Event{UserID: userID}
		var start, end int64
		if err := rows.Scan(&e.ID, &e.Title, &start, &end); err != nil {
			return nil, unavailable("scan event", err)
		}
		e.Start, e.End = fromTS(start), fromTS(end)
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query events", err)
	}
	return res, nil
}

func (s *SQLiteStore) SavePlan(ctx context.Context, p model.Plan) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO plans (id, user_id, created_ts, record) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, toTS(p.CreatedAt), string(b))
	if err != nil {
		return unavailable("save plan", err)
	}
	return nil
}

func (s *SQLiteStore) LatestPlan(ctx context.Context, userID string) (model.Plan, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM plans WHERE user_id = ?
        ORDER BY created_ts DESC, seq DESC LIMIT 1`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, fmt.Errorf("plan for %s: %w", userID, corestore.ErrNotFound)
	}
	if err != nil {
		return model.Plan{}, unavailable("latest plan", err)
	}
	var p model.Plan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return model.Plan{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess model.Session) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, block_id, status, start_ts, end_ts, focus)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.BlockID, string(sess.Status), toTS(sess.Start), toTS(sess.End), sess.FocusScore)
	if err != nil {
		return unavailable("save session", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess model.Session) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET block_id = ?, status = ?, start_ts = ?, end_ts = ?, focus = ?
        WHERE id = ? AND user_id = ?`,
		sess.BlockID, string(sess.Status), toTS(sess.Start), toTS(sess.End), sess.FocusScore, sess.ID, sess.UserID)
	if err != nil {
		return unavailable("update session", err)
	}
	return expectRow(res, "session "+sess.ID)
}

func (s *SQLiteStore) Sessions(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, block_id, status, start_ts, end_ts, focus
        FROM sessions WHERE user_id = ? ORDER BY start_ts, id`, userID)
	if err != nil {
		return nil, unavailable("query sessions", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Session
	for rows.Next() {
		sess := model.Session{UserID: userID}
		var status string
		var start, end int64
		if err := rows.Scan(&sess.ID, &sess.BlockID, &status, &start, &end, &sess.FocusScore); err != nil {
			return nil, unavailable("scan session", err)
		}
		sess.Status = model.SessionStatus(status)
		sess.Start, sess.End = fromTS(start), fromTS(end)
		res = append(res, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query sessions", err)
	}
	return res, nil
}

func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM tasks ORDER BY user_id`)
	if err != nil {
		return nil, unavailable("query users", err)
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, unavailable("scan user", err)
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query users", err)
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
