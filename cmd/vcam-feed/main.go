// Command vcam-feed is a demo frame producer: it registers (or reuses) a
// virtual camera device and feeds it a cycling solid-color test pattern,
// exercising the same bridge.Writer path a real capture source would
// drive.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/bridge"
	"github.com/webcamoid/akvirtualcamera-go/pkg/preferences"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
)

var (
	prefsPath = flag.String("preferences", "preferences.json", "Path to the preferences store")
	deviceID  = flag.String("device", "", "Device ID to feed (creates one named 'vcam-feed' if empty)")
	width     = flag.Int("width", 640, "Frame width")
	height    = flag.Int("height", 480, "Frame height")
	frameRate = flag.Int("fps", 30, "Frames per second")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	prefs, err := preferences.Open(*prefsPath, logger)
	if err != nil {
		logger.Fatal("failed to open preferences store", zap.Error(err), zap.String("path", *prefsPath))
	}

	b := bridge.New(prefs, logger)
	defer b.Close()

	id := *deviceID
	if id == "" || !prefs.CameraExists(id) {
		id = b.AddDevice("vcam-feed", id)
		if id == "" {
			logger.Fatal("failed to register device")
		}
		logger.Info("registered device", zap.String("device", id))
	}

	rate := vcam.Fraction{Num: int64(*frameRate), Den: 1}
	format := vcam.NewVideoFormat(vcam.FourCCFromString("RGB24"), *width, *height, []vcam.Fraction{rate})
	b.SetFormats(id, []vcam.VideoFormat{format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer, ok := bridge.NewWriter(ctx, b, id, uint64(os.Getpid()), rate)
	if !ok {
		logger.Fatal("failed to start input pump; is the device already in use?", zap.String("device", id))
	}
	defer writer.Stop()

	colors := []byte{0xff, 0x00, 0x80, 0x40}
	frameIndex := 0
	next := func() vcam.VideoFrame {
		frame := vcam.NewVideoFrame(format)
		frame.Fill(colors[frameIndex%len(colors)])
		frameIndex++
		return frame
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("streaming test pattern", zap.String("device", id),
		zap.Int("width", *width), zap.Int("height", *height), zap.Int("fps", *frameRate))
	writer.Run(ctx, next)
}
