package firewall

import "context"

// ScanLogStore persists purity scan results for audit.
type ScanLogStore interface {
	LogScan(ctx context.Context, scan *Scan) error
	// ListScans returns recent scans, newest first. A limit <= 0 means no limit.
	ListScans(ctx context.Context, limit int) ([]*Scan, error)
	CountScans(ctx context.Context) (int64, error)
}
