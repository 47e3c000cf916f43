// Package ied provides the device fleet model and persistence for Ordos Core.
//
// An IED (Intelligent Electronic Device) is a protection relay or similar
// substation device that accumulates disturbance recordings and diagnostic
// files. This package owns the fleet catalogue, the archive of retrieved
// artefacts, and the duplicate-detection logic that keeps pollers from
// re-downloading files over slow relay links.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                            Fleet Model                                │
//	│                                                                       │
//	│  ┌───────────────┐   ┌────────────────┐   ┌───────────────────────┐  │
//	│  │   Registry    │   │   Repository    │   │  Deduplicator         │  │
//	│  │ (registry.go) │──▶│ (repository.go) │◀──│  (dedup.go)           │  │
//	│  │               │   │                 │   │                       │  │
//	│  │ • Snapshot    │   │ • SQLite queries│   │ • (name, size) check  │  │
//	│  │ • Deep copies │   │ • Transactions  │   │ • Per-device scope    │  │
//	│  └───────────────┘   └────────────────┘   └───────────────────────┘  │
//	│                              ▲                                        │
//	│               ┌──────────────┴─────────────┐                          │
//	│        ┌──────┴───────┐            ┌───────┴──────┐                   │
//	│        │   Ingestor   │            │   Tracker    │                   │
//	│        │ (ingest.go)  │            │(connectivity)│                   │
//	│        │ fail-loud    │            │ fail-quiet   │                   │
//	│        └──────────────┘            └──────────────┘                   │
//	└──────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: An IED in the fleet, owning its recordings and files
//   - DisturbanceRecording: A COMTRADE fault capture with its DRFiles
//   - IEDFile: A generic file retrieved from a device
//   - FileDescriptor: A (name, size) listing entry offered by a device
//   - ConfigurationValue: An installation-level key/value setting
//
// # Usage
//
//	repo := ied.NewSQLiteRepository(db)
//	registry := ied.NewRegistry(repo, log)
//
//	// Load the fleet snapshot on startup
//	if err := registry.Refresh(ctx); err != nil {
//	    return err
//	}
//
//	// Decide what a poller should download
//	dedup := ied.NewDeduplicator(repo, log)
//	fresh, err := dedup.FilterNew(ctx, deviceID, offered)
//
//	// Persist a downloaded batch (all-or-nothing)
//	ingestor := ied.NewIngestor(repo, log, nil)
//	if err := ingestor.StoreRecordings(ctx, deviceID, recordings); err != nil {
//	    return err
//	}
//
//	// Record reachability (logged and swallowed on failure)
//	tracker := ied.NewTracker(repo, log)
//	tracker.MarkConnected(ctx, deviceID, true)
//
// # Error Policy
//
// Write paths split into two tiers. Archive writes (Ingestor) fail loud:
// errors propagate so the caller can retry the batch on its next cycle.
// Connectivity writes (Tracker) fail quiet: they are telemetry, logged on
// failure and never allowed to interrupt collection.
//
// # Thread Safety
//
// The Registry is safe for concurrent use; its snapshot is guarded by a
// read-write mutex and handed out as deep copies. Repository methods are
// safe to call concurrently.
package ied
