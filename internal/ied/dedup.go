package ied

import (
	"context"
	"errors"
)

// fileKey identifies a stored file for duplicate detection. Matching is
// exact on both fields: a changed size means a different file, and names
// are compared case-sensitively as the device reports them.
type fileKey struct {
	name string
	size int64
}

// Deduplicator decides which files offered by a device are new to the
// store. It exists so pollers download only what they have not already
// retrieved, which matters on the slow serial and low-bandwidth links
// protection relays tend to sit behind.
type Deduplicator struct {
	repo   Repository
	logger Logger
}

// NewDeduplicator creates a deduplicator backed by the given repository.
func NewDeduplicator(repo Repository, logger Logger) *Deduplicator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Deduplicator{repo: repo, logger: logger}
}

// FilterNew returns the subset of candidates not already stored for the
// device, preserving candidate order. Duplicates within the candidate
// list itself are kept; only the store decides what is a duplicate.
//
// An unknown device yields an empty result and a warning, not an error:
// a poller should skip an unrecognised device's files rather than abort
// its cycle. Store failures are returned as errors, since answering
// "nothing is stored" from a broken store would re-download everything.
func (d *Deduplicator) FilterNew(ctx context.Context, deviceID string, candidates []FileDescriptor) ([]FileDescriptor, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	stored, err := d.repo.ListIEDFiles(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			d.logger.Warn("filter requested for unknown device", "device_id", deviceID)
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[fileKey]struct{}, len(stored))
	for _, f := range stored {
		seen[fileKey{name: f.FileName, size: f.FileSize}] = struct{}{}
	}

	var fresh []FileDescriptor
	for _, c := range candidates {
		if _, ok := seen[fileKey{name: c.FileName, size: c.FileSize}]; !ok {
			fresh = append(fresh, c)
		}
	}

	d.logger.Debug("filtered candidate files",
		"device_id", deviceID,
		"offered", len(candidates),
		"new", len(fresh))
	return fresh, nil
}
