package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActiveStream is one in-flight meditation stream.
type ActiveStream struct {
	StreamID        string
	SeekerID        string
	Intention       string
	DurationMinutes int
	StartedAt       time.Time
}

// StreamTracker counts in-flight meditation streams per seeker so the
// server can enforce the concurrency limit and report load.
type StreamTracker struct {
	mu      sync.RWMutex
	streams map[string]*ActiveStream // streamID -> ActiveStream
	logger  *slog.Logger
}

// NewStreamTracker creates an empty tracker.
func NewStreamTracker(logger *slog.Logger) *StreamTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamTracker{
		streams: make(map[string]*ActiveStream),
		logger:  logger,
	}
}

// Begin records a new stream and returns its ID.
func (t *StreamTracker) Begin(seekerID, intention string, durationMinutes int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	streamID := uuid.New().String()
	t.streams[streamID] = &ActiveStream{
		StreamID:        streamID,
		SeekerID:        seekerID,
		Intention:       intention,
		DurationMinutes: durationMinutes,
		StartedAt:       time.Now(),
	}

	t.logger.Debug("meditation stream started",
		slog.String("stream_id", streamID),
		slog.String("seeker_id", seekerID),
	)
	return streamID
}

// End removes a stream from the tracker.
func (t *StreamTracker) End(streamID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stream, ok := t.streams[streamID]
	if !ok {
		return
	}
	delete(t.streams, streamID)

	t.logger.Debug("meditation stream ended",
		slog.String("stream_id", streamID),
		slog.String("seeker_id", stream.SeekerID),
		slog.String("duration", time.Since(stream.StartedAt).String()),
	)
}

// ActiveFor returns the number of in-flight streams for a seeker.
func (t *StreamTracker) ActiveFor(seekerID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, stream := range t.streams {
		if stream.SeekerID == seekerID {
			count++
		}
	}
	return count
}

// ActiveCount returns the total number of in-flight streams.
func (t *StreamTracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.streams)
}
