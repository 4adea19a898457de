package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

func openTest(t *testing.T, path string) *Recorder {
	t.Helper()
	r, err := Open(path, "test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return r
}

func update(id uint64, valid bool, x int) webcam.Update {
	return webcam.Update{
		FrameID: id,
		Time:    time.UnixMilli(1_700_000_000_000 + int64(id)*125),
		Mode:    tracking.ModeColorTracking,
		Result:  tracking.TrackResult{X: x, Y: 40, Valid: valid, Yaw: -6, Area: 51000, CountLeft: 9, CountRight: 3},
		Display: tracking.NewFrame(2, 2),
	}
}

func TestRecorder_RecordsUpdates(t *testing.T) {
	r := openTest(t, filepath.Join(t.TempDir(), "armband.db"))
	defer r.Close()

	for i := uint64(1); i <= 3; i++ {
		r.HandleUpdate(update(i, i != 2, int(i)*10))
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	samples, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}

	// Newest first
	got := samples[0]
	if got.FrameID != 3 || got.Result.X != 30 || !got.Result.Valid {
		t.Errorf("newest sample = %+v", got)
	}
	if got.Mode != tracking.ModeColorTracking {
		t.Errorf("Mode = %v, want color", got.Mode)
	}
	if got.Result.Yaw != -6 || got.Result.Area != 51000 || got.Result.CountLeft != 9 {
		t.Errorf("result = %+v", got.Result)
	}
	if got.SessionID != r.SessionID() {
		t.Errorf("SessionID = %q, want %q", got.SessionID, r.SessionID())
	}
	if !got.Time.Equal(time.UnixMilli(1_700_000_000_375)) {
		t.Errorf("Time = %v", got.Time)
	}
	if samples[1].Result.Valid {
		t.Error("invalid frame recorded as valid")
	}

	written, dropped := r.Stats()
	if written != 3 || dropped != 0 {
		t.Errorf("Stats = (%d, %d), want (3, 0)", written, dropped)
	}
}

func TestRecorder_RecentLimit(t *testing.T) {
	r := openTest(t, filepath.Join(t.TempDir(), "armband.db"))
	defer r.Close()

	for i := uint64(1); i <= 5; i++ {
		r.HandleUpdate(update(i, true, 1))
	}
	r.Flush()

	samples, err := r.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(samples) != 2 || samples[0].FrameID != 5 || samples[1].FrameID != 4 {
		t.Errorf("samples = %+v", samples)
	}
}

func TestRecorder_SessionsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armband.db")

	first := openTest(t, path)
	first.HandleUpdate(update(1, true, 5))
	first.HandleUpdate(update(2, true, 6))
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := openTest(t, path)
	defer second.Close()

	if first.SessionID() == second.SessionID() {
		t.Error("each Open should start a new session")
	}

	sessions, err := second.Sessions(10)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	var ended *Session
	for i := range sessions {
		if sessions[i].ID == first.SessionID() {
			ended = &sessions[i]
		}
	}
	if ended == nil {
		t.Fatal("first session missing")
	}
	if ended.EndedAt == nil {
		t.Error("closed session should have an end time")
	}
	if ended.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", ended.SampleCount)
	}
	if ended.Source != "test" {
		t.Errorf("Source = %q, want test", ended.Source)
	}
}

func TestRecorder_Closed(t *testing.T) {
	r := openTest(t, filepath.Join(t.TempDir(), "armband.db"))
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Must not panic
	r.HandleUpdate(update(1, true, 1))

	if err := r.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush err = %v, want ErrClosed", err)
	}
	if _, err := r.Recent(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent err = %v, want ErrClosed", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestOpen_BadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "armband.db"), "test"); err == nil {
		t.Error("expected error for an unwritable path")
	}
}
