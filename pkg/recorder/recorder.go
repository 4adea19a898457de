// Package recorder persists per-frame track results to SQLite so sessions
// can be reviewed after the fact.
package recorder

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

// schema.sql creates the sessions and samples tables.
//
//go:embed schema.sql
var schemaSQL string

// ErrClosed is returned after Close.
var ErrClosed = errors.New("recorder: closed")

const queueSize = 256

// Sample is one recorded frame.
type Sample struct {
	SessionID string               `json:"session_id"`
	FrameID   uint64               `json:"frame_id"`
	Time      time.Time            `json:"time"`
	Mode      tracking.Mode        `json:"mode"`
	Result    tracking.TrackResult `json:"result"`
}

// Session describes one recorder run.
type Session struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	SampleCount int64      `json:"sample_count"`
}

type item struct {
	update  webcam.Update
	flushed chan struct{}
}

// Recorder is a webcam.Sink that writes every update in the background.
type Recorder struct {
	db      *sql.DB
	session string
	log     *slog.Logger

	queue   chan item
	wg      sync.WaitGroup
	closed  atomic.Bool
	closeMu sync.RWMutex

	written atomic.Uint64
	dropped atomic.Uint64
}

// Open creates or opens the database at path and starts a new session.
// source labels where the frames come from (device, remote publisher).
func Open(path, source string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: create schema: %w", err)
	}

	r := &Recorder{
		db:      db,
		session: uuid.NewString(),
		queue:   make(chan item, queueSize),
	}
	r.log = log.Component("recorder").With("session", r.session)

	_, err = db.Exec(`INSERT INTO sessions (id, source, started_at) VALUES (?, ?, ?)`,
		r.session, source, time.Now().UnixMilli())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: start session: %w", err)
	}

	r.wg.Add(1)
	go r.writeLoop()

	r.log.Info("recorder started", "path", path)
	return r, nil
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session
}

// HandleUpdate queues an update for writing. It never blocks; updates are
// dropped when the writer falls behind.
func (r *Recorder) HandleUpdate(u webcam.Update) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed.Load() {
		return
	}

	// Display frames are not persisted
	u.Display = nil
	select {
	case r.queue <- item{update: u}:
	default:
		if r.dropped.Add(1)%100 == 1 {
			r.log.Warn("recorder queue full, dropping samples", "dropped", r.dropped.Load())
		}
	}
}

// Flush blocks until every update queued before the call is written.
func (r *Recorder) Flush() error {
	done := make(chan struct{})

	r.closeMu.RLock()
	if r.closed.Load() {
		r.closeMu.RUnlock()
		return ErrClosed
	}
	r.queue <- item{flushed: done}
	r.closeMu.RUnlock()

	<-done
	return nil
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()

	for it := range r.queue {
		if it.flushed != nil {
			close(it.flushed)
			continue
		}
		if err := r.insert(it.update); err != nil {
			r.log.Error("recorder write failed", "error", err, "frame", it.update.FrameID)
			continue
		}
		r.written.Add(1)
	}
}

func (r *Recorder) insert(u webcam.Update) error {
	res := u.Result
	_, err := r.db.Exec(`
		INSERT INTO samples (session_id, frame_id, ts, mode, valid, x, y, yaw, area, count_left, count_right)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.session, int64(u.FrameID), u.Time.UnixMilli(), u.Mode.String(), res.Valid,
		res.X, res.Y, res.Yaw, res.Area, res.CountLeft, res.CountRight)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Recent returns up to limit samples, newest first, across all sessions.
func (r *Recorder) Recent(limit int) ([]Sample, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT session_id, frame_id, ts, mode, valid, x, y, yaw, area, count_left, count_right
		FROM samples
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recorder: query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			s      Sample
			frame  int64
			ts     int64
			mode   string
			result tracking.TrackResult
		)
		if err := rows.Scan(&s.SessionID, &frame, &ts, &mode, &result.Valid,
			&result.X, &result.Y, &result.Yaw, &result.Area, &result.CountLeft, &result.CountRight); err != nil {
			return nil, fmt.Errorf("recorder: scan sample: %w", err)
		}
		s.FrameID = uint64(frame)
		s.Time = time.UnixMilli(ts)
		s.Mode, _ = tracking.ParseMode(mode)
		s.Result = result
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Sessions returns up to limit sessions, newest first.
func (r *Recorder) Sessions(limit int) ([]Session, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT s.id, s.source, s.started_at, s.ended_at,
			(SELECT COUNT(*) FROM samples WHERE session_id = s.id)
		FROM sessions s
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recorder: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Source, &started, &ended, &s.SampleCount); err != nil {
			return nil, fmt.Errorf("recorder: scan session: %w", err)
		}
		s.StartedAt = time.UnixMilli(started)
		if ended.Valid {
			t := time.UnixMilli(ended.Int64)
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Stats returns how many samples were written and dropped.
func (r *Recorder) Stats() (written, dropped uint64) {
	return r.written.Load(), r.dropped.Load()
}

// Close drains the queue, ends the session and closes the database.
func (r *Recorder) Close() error {
	r.closeMu.Lock()
	if r.closed.Swap(true) {
		r.closeMu.Unlock()
		return nil
	}
	close(r.queue)
	r.closeMu.Unlock()

	r.wg.Wait()

	_, err := r.db.Exec(`
		UPDATE sessions
		SET ended_at = ?, sample_count = (SELECT COUNT(*) FROM samples WHERE session_id = ?)
		WHERE id = ?
	`, time.Now().UnixMilli(), r.session, r.session)
	if err != nil {
		err = fmt.Errorf("recorder: end session: %w", err)
	}

	written, dropped := r.Stats()
	r.log.Info("recorder stopped", "written", written, "dropped", dropped)

	return errors.Join(err, r.db.Close())
}
