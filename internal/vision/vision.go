// Package vision turns decoded images into fixed-shape normalized pixel
// tensors for the downstream model: channels-first float32, resized to a
// configured target and normalized per channel.
package vision

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Registered decoders for the formats the pipeline accepts.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/atlasml/mmprep/internal/tensor"
)

const channels = 3

// placeholderSide is the edge length of the blank image substituted when a
// sample carries no images. Fixed-shape batching relies on every sample
// producing a pixel tensor, so the empty case gets a white RGB placeholder
// instead of being skipped.
const placeholderSide = 100

// Default normalization constants (CLIP image preprocessing).
var (
	DefaultMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	DefaultStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Processor resizes and normalizes images into pixel-value tensors.
type Processor struct {
	width  int
	height int
	mean   [3]float32
	std    [3]float32
}

// Option configures Processor behaviour.
type Option func(*Processor)

// WithNormalization overrides the per-channel mean and std.
func WithNormalization(mean, std [3]float32) Option {
	return func(p *Processor) {
		p.mean = mean
		p.std = std
	}
}

// NewProcessor constructs a Processor emitting (channels, height, width)
// tensors for single images.
func NewProcessor(width, height int, opts ...Option) (*Processor, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	p := &Processor{
		width:  width,
		height: height,
		mean:   DefaultMean,
		std:    DefaultStd,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, s := range p.std {
		if s == 0 {
			return nil, ErrInvalidNormalization
		}
	}
	return p, nil
}

// PixelValues converts a batch of images into a pixel tensor.
// Zero or one image yields shape (C, H, W); more images yield (N, C, H, W).
// With zero images the blank placeholder is substituted so callers always
// receive a tensor of the configured spatial shape.
func (p *Processor) PixelValues(images []image.Image) (*tensor.Tensor, error) {
	if len(images) <= 1 {
		img := Placeholder()
		if len(images) != 0 {
			img = images[0]
		}
		return p.pixelValues(img), nil
	}

	tensors := make([]*tensor.Tensor, 0, len(images))
	for _, img := range images {
		tensors = append(tensors, p.pixelValues(img))
	}

	stacked, err := tensor.Stack(tensors)
	if err != nil {
		return nil, fmt.Errorf("stack pixel values: %w", err)
	}
	return stacked, nil
}

// pixelValues resizes one image to the target shape and normalizes it
// into a channels-first tensor.
func (p *Processor) pixelValues(img image.Image) *tensor.Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := tensor.New(channels, p.height, p.width)
	plane := p.height * p.width
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			px := dst.RGBAAt(x, y)
			offset := y*p.width + x
			out.Data[offset] = (float32(px.R)/255 - p.mean[0]) / p.std[0]
			out.Data[plane+offset] = (float32(px.G)/255 - p.mean[1]) / p.std[1]
			out.Data[2*plane+offset] = (float32(px.B)/255 - p.mean[2]) / p.std[2]
		}
	}
	return out
}

// Placeholder returns the blank white RGB image substituted for samples
// without visual input.
func Placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSide, placeholderSide))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < placeholderSide; y++ {
		for x := 0; x < placeholderSide; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	return img
}

// DecodeFile opens and decodes a JPEG or PNG image from disk.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}
