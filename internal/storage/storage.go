package storage

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidProfile indicates the provided processing profile violates validation rules.
	ErrInvalidProfile = errors.New("profile fields must be positive (image segment length may be zero)")
)

// Profile holds the tunable parameters of the preprocessing pipeline.
type Profile struct {
	// Capacity is the token budget of one packed batch.
	Capacity int `json:"capacity" yaml:"capacity"`
	// ImageWidth and ImageHeight are the target pixel dimensions.
	ImageWidth  int `json:"imageWidth" yaml:"image_width"`
	ImageHeight int `json:"imageHeight" yaml:"image_height"`
	// FramesPerClip is the number of frames sampled per video.
	FramesPerClip int `json:"framesPerClip" yaml:"frames_per_clip"`
	// ImageSeqLength is the length of the image token segment used for
	// token-type labels.
	ImageSeqLength int `json:"imageSeqLength" yaml:"image_seq_length"`
}

var defaultProfile = Profile{
	Capacity:       2048,
	ImageWidth:     224,
	ImageHeight:    224,
	FramesPerClip:  8,
	ImageSeqLength: 256,
}

// Storage provides access to the processing profile used by the pipeline.
type Storage interface {
	GetProfile() (Profile, error)
	SetProfile(profile Profile) error
}

// MemoryStorage keeps the profile in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	profile Profile
}

// NewMemoryStorage initialises storage with the default profile.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		profile: defaultProfile,
	}
}

// DefaultProfile returns a copy of the default processing profile.
func DefaultProfile() Profile {
	return defaultProfile
}

// GetProfile returns the currently configured profile.
func (s *MemoryStorage) GetProfile() (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.profile, nil
}

// SetProfile validates and stores the provided profile.
func (s *MemoryStorage) SetProfile(profile Profile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	return nil
}

func validateProfile(p Profile) error {
	if p.Capacity <= 0 || p.ImageWidth <= 0 || p.ImageHeight <= 0 || p.FramesPerClip <= 0 {
		return ErrInvalidProfile
	}
	if p.ImageSeqLength < 0 {
		return ErrInvalidProfile
	}
	return nil
}
