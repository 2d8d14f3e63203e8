// Package pipeline runs the offline preprocessing pass over a dataset
// manifest: packing sequence lengths into capacity-bounded batches and
// materializing pixel, clip, and token-type outputs per sample.
package pipeline

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atlasml/mmprep/internal/labels"
	"github.com/atlasml/mmprep/internal/packer"
	"github.com/atlasml/mmprep/internal/storage"
	"github.com/atlasml/mmprep/internal/tensor"
	"github.com/atlasml/mmprep/internal/vision"
)

// ErrInvalidManifest indicates a malformed manifest file.
var ErrInvalidManifest = errors.New("invalid manifest")

// ImageProcessor turns decoded images into a pixel tensor.
type ImageProcessor interface {
	PixelValues(images []image.Image) (*tensor.Tensor, error)
}

// ClipSampler turns a video file into a clip tensor.
type ClipSampler interface {
	Clip(ctx context.Context, path string) (*tensor.Tensor, error)
}

// Preprocessor drives the dataset preprocessing pass.
type Preprocessor struct {
	packer packer.Packer
	images ImageProcessor
	videos ClipSampler
	store  storage.Storage
	logger *zap.Logger
}

// New constructs a Preprocessor with the provided stages.
func New(p packer.Packer, images ImageProcessor, videos ClipSampler, store storage.Storage, logger *zap.Logger) *Preprocessor {
	return &Preprocessor{
		packer: p,
		images: images,
		videos: videos,
		store:  store,
		logger: logger,
	}
}

// SampleOutput records what was produced for one sample.
type SampleOutput struct {
	SeqLen       int    `json:"seqLen"`
	PixelFile    string `json:"pixelFile,omitempty"`
	PixelShape   []int  `json:"pixelShape,omitempty"`
	ClipFile     string `json:"clipFile,omitempty"`
	ClipShape    []int  `json:"clipShape,omitempty"`
	TokenTypeIDs []int  `json:"tokenTypeIds,omitempty"`
}

// Plan is the written summary of one preprocessing run.
type Plan struct {
	Capacity int                     `json:"capacity"`
	Batches  [][]string              `json:"batches"`
	Samples  map[string]SampleOutput `json:"samples"`
}

// Run preprocesses every sample of the manifest into outDir and writes
// plan.json describing the batch assignment and produced tensors.
func (p *Preprocessor) Run(ctx context.Context, manifestPath, outDir string) (*Plan, error) {
	samples, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	profile, err := p.store.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	batches, err := p.planBatches(samples, profile.Capacity)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Capacity: profile.Capacity,
		Batches:  batches,
		Samples:  make(map[string]SampleOutput, len(samples)),
	}

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := p.processSample(ctx, sample, profile, outDir)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", sample.ID, err)
		}
		plan.Samples[sample.ID] = out
	}

	if err := writePlan(filepath.Join(outDir, "plan.json"), plan); err != nil {
		return nil, err
	}

	p.logger.Info("preprocessing finished",
		zap.Int("samples", len(samples)),
		zap.Int("batches", len(plan.Batches)),
		zap.Int("capacity", profile.Capacity),
	)

	return plan, nil
}

// planBatches packs the sample sequence lengths and maps the resulting
// bins back to sample IDs. Samples of equal length are interchangeable,
// so IDs are drawn per length in manifest order.
func (p *Preprocessor) planBatches(samples []Sample, capacity int) ([][]string, error) {
	sizes := make([]int, len(samples))
	byLen := make(map[int][]string)
	for i, s := range samples {
		sizes[i] = s.SeqLen
		byLen[s.SeqLen] = append(byLen[s.SeqLen], s.ID)
	}

	bins, err := p.packer.Pack(sizes, capacity)
	if err != nil {
		return nil, fmt.Errorf("pack sequence lengths: %w", err)
	}

	batches := make([][]string, 0, len(bins))
	for _, bin := range bins {
		batch := make([]string, 0, len(bin))
		for _, size := range bin {
			ids := byLen[size]
			batch = append(batch, ids[0])
			byLen[size] = ids[1:]
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func (p *Preprocessor) processSample(ctx context.Context, sample Sample, profile storage.Profile, outDir string) (SampleOutput, error) {
	out := SampleOutput{SeqLen: sample.SeqLen}
	hasVisual := len(sample.Images) > 0 || sample.Video != ""

	if len(sample.Images) > 0 {
		images := make([]image.Image, 0, len(sample.Images))
		for _, path := range sample.Images {
			img, err := vision.DecodeFile(path)
			if err != nil {
				return SampleOutput{}, err
			}
			images = append(images, img)
		}

		pixels, err := p.images.PixelValues(images)
		if err != nil {
			return SampleOutput{}, err
		}

		name := sample.ID + ".pixels.bin"
		if err := writeTensor(filepath.Join(outDir, name), pixels); err != nil {
			return SampleOutput{}, err
		}
		out.PixelFile = name
		out.PixelShape = pixels.Shape
	}

	if sample.Video != "" {
		clip, err := p.videos.Clip(ctx, sample.Video)
		if err != nil {
			return SampleOutput{}, err
		}

		name := sample.ID + ".clip.bin"
		if err := writeTensor(filepath.Join(outDir, name), clip); err != nil {
			return SampleOutput{}, err
		}
		out.ClipFile = name
		out.ClipShape = clip.Shape
	}

	// Token-type labels only apply to samples with visual input: the
	// image segment does not exist for text-only sequences.
	if hasVisual {
		ids, err := labels.TokenTypeIDs(sample.SeqLen, profile.ImageSeqLength)
		if err != nil {
			return SampleOutput{}, err
		}
		out.TokenTypeIDs = ids
	}

	return out, nil
}

// writeTensor stores the raw little-endian float32 data of a tensor; the
// shape travels in plan.json.
func writeTensor(path string, t *tensor.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tensor file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, t.Data); err != nil {
		return fmt.Errorf("write tensor data: %w", err)
	}
	return nil
}

func writePlan(path string, plan *Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
