package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with statistics
	SendSuccess(ctx context.Context, stats SyncStatistics) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

// SyncStatistics holds the final statistics for a sync run
type SyncStatistics struct {
	TotalItems     int
	BundledItems   int
	AlreadyPresent int
	Downloaded     int
	Failed         int
	FailedIDs      []string
	BytesOnDisk    int64
}

// CloudItems is the number of items that live in remote storage
func (s SyncStatistics) CloudItems() int {
	return s.TotalItems - s.BundledItems
}

// CoveragePercent is the share of cloud items available offline
func (s SyncStatistics) CoveragePercent() float64 {
	cloud := s.CloudItems()
	if cloud <= 0 {
		return 100
	}
	return float64(s.AlreadyPresent+s.Downloaded) / float64(cloud) * 100
}
