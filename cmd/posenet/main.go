// Command posenet estimates human poses from a camera or a directory of frames and logs the
// keypoints as JSON.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-posenet/config"
	"github.com/nvr-ai/go-posenet/inference"
	"github.com/nvr-ai/go-posenet/logger"
	"github.com/nvr-ai/go-posenet/util"
)

func main() {
	configPath := flag.String("file", "", "configuration file")
	flag.Parse()

	os.Exit(run(*configPath))
}

// run owns every deferred cleanup so that main can exit with its code afterwards.
func run(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		zap.NewExample().Error("loading configuration", zap.Error(err))
		return 1
	}

	log := logger.New(cfg.Server.Debug)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	estimator, err := inference.NewEstimatorBuilder().
		WithProvider(cfg.Provider).
		WithModel(cfg.ModelArgs()).
		WithOptions(cfg.EstimatorOptions()).
		WithLogger(log).
		Build()
	if err != nil {
		log.Error("building estimator", zap.Error(err))
		return 1
	}
	defer func() {
		if err := estimator.Close(); err != nil {
			log.Warn("closing estimator", zap.Error(err))
		}
	}()

	if cfg.Input.Directory != "" {
		err = runDirectory(ctx, estimator, cfg.Input.Directory, log)
	} else {
		err = runCamera(ctx, estimator, cfg.Input.DeviceID, log)
	}
	if err != nil && ctx.Err() == nil {
		log.Error("estimation stopped", zap.Error(err))
		return 1
	}
	return 0
}

func runDirectory(ctx context.Context, estimator *inference.Estimator, dir string, log *zap.Logger) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	log.Info("loaded frames", zap.String("directory", dir), zap.Int("frames", len(files)))

	for _, file := range files {
		frame, img, err := util.LoadFrame(file)
		if err != nil {
			log.Warn("skipping frame", zap.String("path", file.Path), zap.Error(err))
			continue
		}

		log.Debug("decoded frame",
			zap.Int("frame", file.Frame),
			zap.String("format", string(frame.Format)),
			zap.Int("width", frame.Width),
			zap.Int("height", frame.Height),
			zap.Int("bytes", len(frame.Data)))

		result, err := estimator.Estimate(ctx, img)
		if err != nil {
			return err
		}
		logResult(log, file.Frame, result)
	}
	return nil
}

func runCamera(ctx context.Context, estimator *inference.Estimator, deviceID int, log *zap.Logger) error {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return err
	}
	defer webcam.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.Info("reading camera", zap.Int("device", deviceID))
	for frame := 0; ctx.Err() == nil; frame++ {
		if ok := webcam.Read(&mat); !ok {
			log.Warn("cannot read device", zap.Int("device", deviceID))
			return nil
		}
		if mat.Empty() {
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			return err
		}

		result, err := estimator.Estimate(ctx, img)
		if err != nil {
			return err
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
			log.Debug("throughput", zap.Float64("fps", fps))
		}

		logResult(log, frame, result)
	}
	return nil
}

func logResult(log *zap.Logger, frame int, result *inference.Result) {
	log.Info("poses",
		zap.Int("frame", frame),
		zap.Int("count", len(result.Poses)),
		zap.Int("stride", result.Stride),
		zap.Duration("elapsed", result.Elapsed),
		zap.Any("keypoints", result.Projected))
}
