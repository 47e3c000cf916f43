package ied

import (
	"context"
	"fmt"
)

// EventPublisher announces completed ingestion batches. Implementations
// must not block; publish failures are theirs to handle.
type EventPublisher interface {
	RecordingsStored(deviceID string, count int)
	FilesStored(deviceID string, count int)
}

// Ingestor persists batches of downloaded artefacts against their device.
//
// Unlike connectivity updates, ingestion failures are loud: a batch that
// cannot be stored is data loss, so errors propagate to the caller for
// retry on the next polling cycle. The underlying store guarantees each
// batch commits completely or not at all.
type Ingestor struct {
	repo      Repository
	publisher EventPublisher
	logger    Logger
}

// NewIngestor creates an ingestor. The publisher is optional; when set it
// is notified after each successfully committed batch.
func NewIngestor(repo Repository, logger Logger, publisher EventPublisher) *Ingestor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Ingestor{repo: repo, publisher: publisher, logger: logger}
}

// StoreRecordings persists a batch of disturbance recordings for a device.
// An empty batch is a no-op. Returns ErrDeviceNotFound if the device does
// not exist; nothing is persisted in that case.
func (in *Ingestor) StoreRecordings(ctx context.Context, deviceID string, recordings []DisturbanceRecording) error {
	if len(recordings) == 0 {
		return nil
	}

	if err := in.repo.StoreDisturbanceRecordings(ctx, deviceID, recordings); err != nil {
		return fmt.Errorf("storing recordings for device %s: %w", deviceID, err)
	}

	files := 0
	for i := range recordings {
		files += len(recordings[i].DRFiles)
	}
	in.logger.Info("stored disturbance recordings",
		"device_id", deviceID,
		"recordings", len(recordings),
		"files", files)

	if in.publisher != nil {
		in.publisher.RecordingsStored(deviceID, len(recordings))
	}
	return nil
}

// StoreFiles persists a batch of generic device files.
// Same contract as StoreRecordings.
func (in *Ingestor) StoreFiles(ctx context.Context, deviceID string, files []IEDFile) error {
	if len(files) == 0 {
		return nil
	}

	if err := in.repo.StoreIEDFiles(ctx, deviceID, files); err != nil {
		return fmt.Errorf("storing files for device %s: %w", deviceID, err)
	}

	in.logger.Info("stored device files",
		"device_id", deviceID,
		"files", len(files))

	if in.publisher != nil {
		in.publisher.FilesStored(deviceID, len(files))
	}
	return nil
}
