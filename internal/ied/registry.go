package ied

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// CompanyNameKey is the configuration key fragment identifying the
// installation's company name entry.
const CompanyNameKey = "CompanyName"

// Logger is a minimal logging interface so the registry can emit
// diagnostics without depending on a concrete logging implementation.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
func (noopLogger) Debug(msg string, args ...any) {}

// Registry holds an in-memory snapshot of the device fleet for cheap
// repeated reads. The snapshot is loaded from the repository and handed
// out as deep copies, so callers can walk recording history freely
// without coordinating with writers.
//
// The snapshot is refreshed wholesale, never patched in place: after
// ingestion or fleet changes, call Refresh to observe them. Between
// refreshes the snapshot may lag the store, which is acceptable for the
// read-mostly dashboards it serves.
type Registry struct {
	mu        sync.RWMutex
	repo      Repository
	devices   map[string]*Device
	company   string
	refreshed bool
	logger    Logger
}

// NewRegistry creates a registry backed by the given repository.
// The snapshot is empty until Refresh is called.
func NewRegistry(repo Repository, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		repo:    repo,
		devices: make(map[string]*Device),
		logger:  logger,
	}
}

// Refresh replaces the snapshot with the current store contents.
// On failure the previous snapshot is kept and the error returned, so a
// transient store problem degrades reads to stale rather than empty.
func (r *Registry) Refresh(ctx context.Context) error {
	devices, err := r.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("refreshing device snapshot: %w", err)
	}

	company := ""
	if name, err := r.repo.GetConfigurationValue(ctx, CompanyNameKey); err == nil {
		company = name
	} else if !errors.Is(err, ErrValueNotFound) {
		r.logger.Warn("failed to load company name", "error", err)
	}

	snapshot := make(map[string]*Device, len(devices))
	for i := range devices {
		snapshot[devices[i].ID] = &devices[i]
	}

	r.mu.Lock()
	r.devices = snapshot
	r.company = company
	r.refreshed = true
	r.mu.Unlock()

	r.logger.Info("device snapshot refreshed", "devices", len(snapshot))
	return nil
}

// Devices returns deep copies of every device in the snapshot,
// recordings and files included, ordered by name then ID.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d.DeepCopy())
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].ID < devices[j].ID
	})
	return devices
}

// GetDevice returns a deep copy of the snapshot entry for id.
// Returns ErrDeviceNotFound if the snapshot has no such device.
func (r *Registry) GetDevice(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// Count returns the number of devices in the snapshot.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// CompanyName returns the installation's company name as loaded at the
// last refresh, or the empty string if none is configured.
func (r *Registry) CompanyName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.company
}

// Refreshed reports whether at least one refresh has completed.
func (r *Registry) Refreshed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshed
}
