package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/atlasml/mmprep/internal/labels"
	"github.com/atlasml/mmprep/internal/packer"
	"github.com/atlasml/mmprep/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires packer and storage dependencies into HTTP handlers.
type Handler struct {
	packer  packer.Packer
	storage storage.Storage

	clock func() time.Time

	mu               sync.RWMutex
	profileUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(p packer.Packer, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		packer:  p,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.profileUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	_ = r
	profile, err := h.storage.GetProfile()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := profileResponse{
		Profile:   profile,
		UpdatedAt: h.currentProfileUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req storage.Profile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.storage.SetProfile(req); err != nil {
		if errors.Is(err, storage.ErrInvalidProfile) {
			writeError(w, http.StatusBadRequest, "Invalid profile", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markProfileUpdated()

	profile, err := h.storage.GetProfile()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := profileResponse{
		Profile:   profile,
		UpdatedAt: h.currentProfileUpdatedAt(),
		Message:   "Profile updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	capacity := req.Capacity
	if capacity == 0 {
		profile, err := h.storage.GetProfile()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		capacity = profile.Capacity
	}

	start := time.Now()
	bins, packErr := h.packer.Pack(req.Sizes, capacity)
	elapsed := time.Since(start)

	if packErr != nil {
		switch {
		case errors.Is(packErr, packer.ErrInvalidCapacity):
			writeError(w, http.StatusBadRequest, "Invalid capacity", packErr.Error())
		case errors.Is(packErr, packer.ErrNegativeSize):
			writeError(w, http.StatusBadRequest, "Invalid sizes", packErr.Error())
		default:
			writeInternalError(w, packErr)
		}
		return
	}

	summary := packer.Summarize(bins)
	resp := packResponse{
		Capacity:   capacity,
		Bins:       summary.Bins,
		BinCount:   summary.BinCount,
		TotalItems: summary.TotalItems,
		PackTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTokenTypes(w http.ResponseWriter, r *http.Request) {
	var req tokenTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.InputLength < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "inputLength must be non-negative")
		return
	}

	imageSeqLen := req.ImageSeqLength
	if imageSeqLen == nil {
		profile, err := h.storage.GetProfile()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		imageSeqLen = &profile.ImageSeqLength
	}

	ids, err := labels.TokenTypeIDs(req.InputLength, *imageSeqLen)
	if err != nil {
		if errors.Is(err, labels.ErrInvalidLength) {
			writeError(w, http.StatusUnprocessableEntity, "Invalid lengths", err.Error(),
				"inputLength must be at least the image segment length")
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := tokenTypesResponse{
		InputLength:    req.InputLength,
		ImageSeqLength: *imageSeqLen,
		TokenTypeIDs:   ids,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentProfileUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profileUpdatedAt
}

func (h *Handler) markProfileUpdated() {
	h.mu.Lock()
	h.profileUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type packRequest struct {
	Sizes    []int `json:"sizes"`
	Capacity int   `json:"capacity,omitempty"`
}

type packResponse struct {
	Capacity   int     `json:"capacity"`
	Bins       [][]int `json:"bins"`
	BinCount   int     `json:"binCount"`
	TotalItems int     `json:"totalItems"`
	PackTimeMs int64   `json:"packTimeMs"`
}

type tokenTypesRequest struct {
	InputLength    int  `json:"inputLength"`
	ImageSeqLength *int `json:"imageSeqLength,omitempty"`
}

type tokenTypesResponse struct {
	InputLength    int   `json:"inputLength"`
	ImageSeqLength int   `json:"imageSeqLength"`
	TokenTypeIDs   []int `json:"tokenTypeIds"`
}

type profileResponse struct {
	Profile   storage.Profile `json:"profile"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Message   string          `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
