package hub

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
)

func TestNew(t *testing.T) {
	h := New("track")

	if h.Name() != "track" {
		t.Errorf("Name = %q, want track", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestBroadcast_FullQueueDrops(t *testing.T) {
	h := New("test")

	// Nobody drains the queue while the loop is stopped
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.BroadcastBinary([]byte{1})
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}
}

func TestBroadcastJSON_Error(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if !h.IsRunning() {
		t.Error("hub should be running")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.IsRunning() {
		t.Error("hub should have stopped")
	}
}

func TestHub_FanOut(t *testing.T) {
	h := New("track")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		NewClient(h, c).Run()
	}))

	go app.Listen(":18190")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	var conns []*gws.Conn
	for i := 0; i < 2; i++ {
		ws, _, err := gws.DefaultDialer.Dial("ws://localhost:18190/ws", nil)
		if err != nil {
			t.Fatalf("WebSocket dial error: %v", err)
		}
		defer ws.Close()
		conns = append(conns, ws)
	}

	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 2 {
		t.Fatalf("ClientCount = %d, want 2", h.ClientCount())
	}

	if err := h.BroadcastJSON(map[string]int{"x": 1}); err != nil {
		t.Fatalf("BroadcastJSON error: %v", err)
	}
	h.BroadcastBinary([]byte{0xFF, 0xD8})

	for i, ws := range conns {
		ws.SetReadDeadline(time.Now().Add(time.Second))

		typ, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read error: %v", i, err)
		}
		if typ != gws.TextMessage || string(data) != `{"x":1}` {
			t.Errorf("client %d got %d %q", i, typ, data)
		}

		typ, data, err = ws.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read error: %v", i, err)
		}
		if typ != gws.BinaryMessage || len(data) != 2 {
			t.Errorf("client %d got %d %v", i, typ, data)
		}
	}

	conns[0].Close()
	time.Sleep(100 * time.Millisecond)
	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1 after disconnect", h.ClientCount())
	}
}

func TestMessage_OlderThan(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		last uint64
		want bool
	}{
		{"untied message", Message{Type: JSONMessage}, 9, false},
		{"older frame", FrameMessage(3, nil), 5, true},
		{"same frame", TrackMessage(5, nil), 5, false},
		{"newer frame", FrameMessage(6, nil), 5, false},
		{"first frame", TrackMessage(1, nil), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.olderThan(tt.last); got != tt.want {
				t.Errorf("olderThan(%d) = %v, want %v", tt.last, got, tt.want)
			}
		})
	}
}

func TestHub_SkipsStaleFrames(t *testing.T) {
	h := New("camera")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		NewClient(h, c).Run()
	}))

	go app.Listen(":18197")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := gws.DefaultDialer.Dial("ws://localhost:18197/ws", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	time.Sleep(50 * time.Millisecond)

	h.Broadcast(FrameMessage(5, []byte{5}))
	h.Broadcast(FrameMessage(3, []byte{3}))
	h.Broadcast(FrameMessage(6, []byte{6}))

	for _, want := range []byte{5, 6} {
		ws.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read error: %v", err)
		}
		if len(data) != 1 || data[0] != want {
			t.Errorf("got frame %v, want [%d]", data, want)
		}
	}
	if h.Stale() != 1 {
		t.Errorf("Stale = %d, want 1", h.Stale())
	}
}
