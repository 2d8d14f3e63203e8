package video

import "errors"

var (
	// ErrInvalidFrameCount is returned when the configured frames-per-clip is not positive.
	ErrInvalidFrameCount = errors.New("frames per clip must be a positive integer")
	// ErrProbe is returned when ffprobe cannot report the video frame count.
	ErrProbe = errors.New("unable to probe video")
	// ErrExtract is returned when ffmpeg fails to extract the sampled frames.
	ErrExtract = errors.New("unable to extract frames")
	// ErrNoFrames is returned when a video yields no decodable frames.
	ErrNoFrames = errors.New("video contains no frames")
)
