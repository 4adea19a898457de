// Armtrack - colored armband tracker
//
// Reads frames from a local camera (or from remote publishers on
// /ws/ingest), finds the marker, estimates its yaw and serves the results
// on a web dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-armband/internal/config"
	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/camera"
	"github.com/teslashibe/go-armband/pkg/debug"
	"github.com/teslashibe/go-armband/pkg/ingest"
	"github.com/teslashibe/go-armband/pkg/recorder"
	"github.com/teslashibe/go-armband/pkg/rtcsource"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/web"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

type options struct {
	cameraID     int
	cameraPreset string
	port         string
	rate         float64
	color        string
	scan         string
	dbPath       string
	remote       bool
	webrtcURL    string
	producer     string
	noOverlay    bool
	logLevel     string
}

func main() {
	opts := parseFlags()
	log.Init(opts.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flag.IntVar(&opts.cameraID, "camera", config.CameraID(), "Camera device index (CAMERA_ID)")
	flag.StringVar(&opts.cameraPreset, "camera-preset", "default", "Camera preset: default, low-latency, hd, smooth")
	flag.StringVar(&opts.port, "port", config.Port(), "Dashboard port (ARMBAND_PORT)")
	flag.Float64Var(&opts.rate, "rate", 0, "Frames per second to process (0 uses the camera preset)")
	flag.StringVar(&opts.color, "color", "green", "Marker color preset: green, blue, red, yellow")
	flag.StringVar(&opts.scan, "scan", "default", "Scan preset: default, small, wide")
	flag.StringVar(&opts.dbPath, "db", config.DBPath(), "Recorder database path, empty to disable (ARMBAND_DB)")
	flag.BoolVar(&opts.remote, "remote", false, "Take frames from /ws/ingest instead of a local camera")
	flag.StringVar(&opts.webrtcURL, "webrtc", "", "Take frames from a webrtcsink signalling server, e.g. ws://host:8443")
	flag.StringVar(&opts.producer, "webrtc-producer", "", "webrtcsink producer name (default: first producer)")
	flag.BoolVar(&opts.noOverlay, "no-overlay", false, "Do not draw the centroid line on display frames")
	flag.StringVar(&opts.logLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error (LOG_LEVEL)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every tracking result")
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Tracking = *debugTracking
	if *debugFlag {
		opts.logLevel = "debug"
	}
	return opts
}

func run(ctx context.Context, opts options) error {
	color := tracking.GetColorPreset(opts.color)
	if color == nil {
		return fmt.Errorf("unknown color preset %q (have %v)", opts.color, tracking.ColorPresetNames())
	}
	scan := tracking.GetScanPreset(opts.scan)
	if scan == nil {
		return fmt.Errorf("unknown scan preset %q (have %v)", opts.scan, tracking.ScanPresetNames())
	}
	camCfg := camera.GetPreset(opts.cameraPreset)
	if camCfg == nil {
		return fmt.Errorf("unknown camera preset %q (have %v)", opts.cameraPreset, camera.PresetNames())
	}
	camCfg.CameraID = opts.cameraID

	conv := camera.NewConverter(camCfg.JPEGQuality)

	readerCfg := webcam.DefaultConfig()
	readerCfg.RefreshRate = camCfg.RefreshRate
	if opts.rate > 0 {
		readerCfg.RefreshRate = opts.rate
	}
	readerCfg.Overlay = !opts.noOverlay

	var (
		source   webcam.FrameSource
		manager  *camera.Manager
		ingestor *ingest.Source
		origin   string
	)
	switch {
	case opts.webrtcURL != "":
		rtcCfg := rtcsource.DefaultConfig(opts.webrtcURL)
		rtcCfg.Producer = opts.producer
		rtc, err := rtcsource.Dial(ctx, rtcCfg, conv)
		if err != nil {
			return err
		}
		defer rtc.Close()
		source = rtc
		origin = "webrtc:" + opts.webrtcURL
		// The track can take a while to negotiate
		readerCfg.MaxConsecutiveErrors = 0
	case opts.remote:
		ingestor = ingest.New(conv)
		source = ingestor
		origin = "remote"
		// Publishers come and go, a quiet link is not a failure
		readerCfg.MaxConsecutiveErrors = 0
	default:
		capture, err := camera.Open(*camCfg)
		if err != nil {
			return err
		}
		defer capture.Close()
		source = capture
		origin = fmt.Sprintf("camera:%d", camCfg.CameraID)

		manager = camera.NewManager(*camCfg)
		manager.OnConfigChange = func(cfg camera.Config) error {
			if err := capture.Apply(cfg); err != nil {
				return err
			}
			conv.SetQuality(cfg.JPEGQuality)
			return nil
		}
	}

	reader, err := webcam.New(readerCfg, source, conv, tracking.NewPipeline(*color, *scan))
	if err != nil {
		return err
	}

	server := web.NewServer(opts.port, reader, conv)
	if manager != nil {
		server.SetCameraManager(manager)
	}
	if ingestor != nil {
		ingestor.RegisterRoutes(server.App())
		ingestor.RegisterAPIRoutes(server.App().Group("/api"))
	}
	reader.AddSink(server)

	if opts.dbPath != "" {
		rec, err := recorder.Open(opts.dbPath, origin)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Warn("close recorder", "error", err)
			}
		}()
		server.SetHistory(rec)
		reader.AddSink(rec)
		log.Info("recording", "db", opts.dbPath, "session", rec.SessionID())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	log.Info("armband tracker ready",
		"source", origin,
		"color", opts.color,
		"scan", opts.scan,
		"rate", readerCfg.RefreshRate)

	readerErr := make(chan error, 1)
	go func() {
		readerErr <- reader.Run(ctx)
	}()

	select {
	case err := <-serverErr:
		cancel()
		<-readerErr
		return err
	case err := <-readerErr:
		cancel()
		<-serverErr
		return err
	}
}
