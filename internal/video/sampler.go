// Package video samples a fixed number of evenly spaced frames from video
// files and decodes them into pixel tensors via the vision processor.
// Frame extraction shells out to ffmpeg/ffprobe.
package video

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atlasml/mmprep/internal/tensor"
	"github.com/atlasml/mmprep/internal/vision"
)

// DefaultFramesPerClip is the number of frames sampled per video.
const DefaultFramesPerClip = 8

// Sampler extracts evenly spaced frames from videos and turns them into
// (T, C, H, W) clip tensors.
type Sampler struct {
	frames  int
	proc    *vision.Processor
	logger  *zap.Logger
	ffmpeg  string
	ffprobe string
}

// SamplerOption configures Sampler behaviour.
type SamplerOption func(*Sampler)

// WithTools overrides the ffmpeg and ffprobe binary paths.
func WithTools(ffmpegPath, ffprobePath string) SamplerOption {
	return func(s *Sampler) {
		s.ffmpeg = ffmpegPath
		s.ffprobe = ffprobePath
	}
}

// NewSampler constructs a Sampler that takes framesPerClip frames per video.
func NewSampler(framesPerClip int, proc *vision.Processor, logger *zap.Logger, opts ...SamplerOption) (*Sampler, error) {
	if framesPerClip <= 0 {
		return nil, ErrInvalidFrameCount
	}

	s := &Sampler{
		frames:  framesPerClip,
		proc:    proc,
		logger:  logger,
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SampleIndices returns the frame indices to decode for a video with
// totalFrames frames: framesPerClip evenly spaced positions, deduplicated
// when the video is shorter than the clip length.
func (s *Sampler) SampleIndices(totalFrames int) []int {
	if totalFrames <= 0 {
		return nil
	}

	indices := make([]int, 0, s.frames)
	seen := make(map[int]struct{}, s.frames)
	for i := 0; i < s.frames; i++ {
		idx := i * totalFrames / s.frames
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices
}

// Clip samples one video into a (T, C, H, W) tensor.
func (s *Sampler) Clip(ctx context.Context, path string) (*tensor.Tensor, error) {
	total, err := s.probeFrameCount(ctx, path)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, path)
	}

	indices := s.SampleIndices(total)

	workDir, err := os.MkdirTemp("", "mmprep-frames-")
	if err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	framePaths, err := s.extractFrames(ctx, path, indices, workDir)
	if err != nil {
		return nil, err
	}

	frames := make([]*tensor.Tensor, 0, len(framePaths))
	for _, framePath := range framePaths {
		img, err := vision.DecodeFile(framePath)
		if err != nil {
			return nil, err
		}
		px, err := s.proc.PixelValues([]image.Image{img})
		if err != nil {
			return nil, err
		}
		frames = append(frames, px)
	}

	clip, err := tensor.Stack(frames)
	if err != nil {
		return nil, fmt.Errorf("stack frames: %w", err)
	}

	s.logger.Info("video sampled",
		zap.String("path", path),
		zap.Int("total_frames", total),
		zap.Int("sampled_frames", len(framePaths)),
	)

	return clip, nil
}

// Clips samples a batch of videos into an (N, T, C, H, W) tensor.
// All videos must yield the same number of sampled frames.
func (s *Sampler) Clips(ctx context.Context, paths []string) (*tensor.Tensor, error) {
	clips := make([]*tensor.Tensor, 0, len(paths))
	for _, path := range paths {
		clip, err := s.Clip(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", path, err)
		}
		clips = append(clips, clip)
	}

	batch, err := tensor.Stack(clips)
	if err != nil {
		return nil, fmt.Errorf("stack clips: %w", err)
	}
	return batch, nil
}

func (s *Sampler) probeFrameCount(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}
	return parseFrameCount(string(output))
}

func parseFrameCount(output string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, fmt.Errorf("%w: parse frame count: %v", ErrProbe, err)
	}
	return count, nil
}

func (s *Sampler) extractFrames(ctx context.Context, path string, indices []int, outputDir string) ([]string, error) {
	framePattern := filepath.Join(outputDir, "frame_%04d.png")
	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-i", path,
		"-vf", selectFilter(indices),
		"-fps_mode", "passthrough",
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v, output: %s", ErrExtract, path, err, string(output))
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, path)
	}
	sort.Strings(frames)

	return frames, nil
}

// selectFilter builds the ffmpeg select expression matching exactly the
// given frame indices.
func selectFilter(indices []int) string {
	terms := make([]string, 0, len(indices))
	for _, idx := range indices {
		terms = append(terms, fmt.Sprintf("eq(n\\,%d)", idx))
	}
	// Commas are escaped because the expression is passed to ffmpeg
	// directly, without shell quoting.
	return "select=" + strings.Join(terms, "+")
}
