// Armwatch - prints live armband track results from a running armtrack
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-armband/internal/config"
	"github.com/teslashibe/go-armband/internal/httpc"
	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/protocol"
	"github.com/teslashibe/go-armband/pkg/tracking"
)

func main() {
	url := flag.String("url", config.TrackerURL(), "Tracker base URL (ARMBAND_URL)")
	validOnly := flag.Bool("valid", false, "Only print frames with a detection")
	flag.Parse()

	log.Init(config.LogLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printStatus(ctx, *url)

	endpoint := *url + "/ws/track"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to connect to %s: %v\n", endpoint, err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Printf("📡 Watching %s (Ctrl+C to stop)\n", endpoint)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Error("read failed", "error", err)
			}
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypeTrack {
			continue
		}
		track, err := msg.GetTrackData()
		if err != nil {
			log.Warn("bad track message", "error", err)
			continue
		}
		if *validOnly && !track.Valid {
			continue
		}

		marker := "·"
		if track.Valid {
			marker = "●"
		}
		fmt.Printf("%s #%-6d %-11s x=%-4d y=%-4d yaw=%+6.1f area=%-8d L=%-3d R=%-3d\n",
			marker, track.FrameID, track.Mode, track.X, track.Y, track.Yaw,
			track.Area, track.CountLeft, track.CountRight)
	}
}

// printStatus shows the tracker's mode and counters before streaming.
func printStatus(ctx context.Context, wsURL string) {
	base := "http" + strings.TrimPrefix(wsURL, "ws")

	var status struct {
		Mode  tracking.Mode       `json:"mode"`
		Color tracking.ColorRange `json:"color"`
		Scan  tracking.ScanConfig `json:"scan"`
		Stats struct {
			Frames     uint64 `json:"frames"`
			Tracked    uint64 `json:"tracked"`
			StreamOpen bool   `json:"stream_open"`
		} `json:"stats"`
	}
	if err := httpc.GetJSON(ctx, base+"/api/status", &status); err != nil {
		log.Warn("status unavailable", "error", err)
		return
	}

	fmt.Printf("🎯 mode=%s color=H%d-%d scan=%dpx frames=%d tracked=%d stream_open=%v\n",
		status.Mode, status.Color.LowH, status.Color.HighH, status.Scan.ScanDistance,
		status.Stats.Frames, status.Stats.Tracked, status.Stats.StreamOpen)
}
