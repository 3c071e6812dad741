// Package notification delivers daily guidance digests to external
// endpoints. The scheduler hands each generated digest to a Notifier;
// delivery failures are logged and never block digest generation.
package notification

import (
	"context"

	"github.com/sophia-platform/sophia/internal/engine"
)

// Notifier delivers a generated daily digest to an external destination.
type Notifier interface {
	// Type returns the channel type identifier ("webhook").
	Type() string
	// Deliver sends the digest. Implementations should respect ctx deadlines.
	Deliver(ctx context.Context, digest *engine.DailyDigest) error
}
