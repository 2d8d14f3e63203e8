package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/atlasml/mmprep/internal/config"
	"github.com/atlasml/mmprep/internal/logging"
	"github.com/atlasml/mmprep/internal/packer"
	"github.com/atlasml/mmprep/internal/pipeline"
	"github.com/atlasml/mmprep/internal/storage"
	"github.com/atlasml/mmprep/internal/video"
	"github.com/atlasml/mmprep/internal/vision"
)

func main() {
	kingpinApp := kingpin.New("mmprep", "Multimodal preprocessing - packs sequences into batches and materializes image/video tensors")
	manifestPath := kingpinApp.Flag("manifest", "Path to JSONL dataset manifest").Required().String()
	outDir := kingpinApp.Flag("out", "Output directory for tensors and plan.json").Required().String()
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	capacityFlag := kingpinApp.Flag("capacity", "Token budget per packed batch (set 0 to keep default)").Default("0").Int()
	framesFlag := kingpinApp.Flag("frames-per-clip", "Frames sampled per video (set 0 to keep default)").Default("0").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *capacityFlag > 0 {
		overrides.Capacity = capacityFlag
	}
	if *framesFlag > 0 {
		overrides.FramesPerClip = framesFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger, *manifestPath, *outDir); err != nil {
		logger.Fatal("preprocessing failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger, manifestPath, outDir string) error {
	profile := cfg.InitialProfile

	store := storage.NewMemoryStorage()
	if err := store.SetProfile(profile); err != nil {
		return fmt.Errorf("apply profile: %w", err)
	}

	proc, err := vision.NewProcessor(profile.ImageWidth, profile.ImageHeight)
	if err != nil {
		return fmt.Errorf("create image processor: %w", err)
	}

	sampler, err := video.NewSampler(profile.FramesPerClip, proc, logger)
	if err != nil {
		return fmt.Errorf("create video sampler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pre := pipeline.New(packer.New(), proc, sampler, store, logger)
	plan, err := pre.Run(ctx, manifestPath, outDir)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.Int("batches", len(plan.Batches)),
		zap.Int("samples", len(plan.Samples)),
		zap.String("out", outDir),
	)
	return nil
}
