package collector

import (
	"context"
	"sync"
	"time"

	"github.com/ordos-scada/ordos-core/internal/ied"
)

// Config holds collector timing configuration.
type Config struct {
	// Interval is how often a polling cycle starts. Default: 5 minutes.
	Interval time.Duration

	// ContactTimeout bounds all protocol work against one device within
	// a cycle. Default: 60 seconds.
	ContactTimeout time.Duration
}

// Collector runs the polling cycle over the device fleet.
//
// Each cycle walks the registry snapshot sequentially: mark reachability,
// list the device's files, filter out what the archive already holds,
// download and ingest the rest. Devices are isolated from each other; one
// relay timing out on a serial link must not stall the rest of the fleet
// beyond its own contact timeout.
type Collector struct {
	registry *ied.Registry
	dedup    *ied.Deduplicator
	ingestor *ied.Ingestor
	tracker  *ied.Tracker
	scanner  Scanner
	metrics  CycleMetrics

	interval       time.Duration
	contactTimeout time.Duration
	logger         ied.Logger

	pollNow  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a collector. All collaborators are required except the
// logger, which may be nil.
func New(cfg Config, registry *ied.Registry, dedup *ied.Deduplicator,
	ingestor *ied.Ingestor, tracker *ied.Tracker, scanner Scanner, logger ied.Logger) *Collector {

	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}
	contactTimeout := cfg.ContactTimeout
	if contactTimeout == 0 {
		contactTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = noopLogger{}
	}

	return &Collector{
		registry:       registry,
		dedup:          dedup,
		ingestor:       ingestor,
		tracker:        tracker,
		scanner:        scanner,
		interval:       interval,
		contactTimeout: contactTimeout,
		logger:         logger,
		pollNow:        make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
}

// CycleMetrics receives per-cycle statistics for telemetry backends.
// Implementations must not block.
type CycleMetrics interface {
	WritePollCycle(devices int, failures int, duration time.Duration)
}

// SetMetrics sets an optional telemetry sink for cycle statistics.
// Call before Start.
func (c *Collector) SetMetrics(m CycleMetrics) {
	c.metrics = m
}

// Start begins the polling loop. The first cycle runs immediately.
// Call Stop to shut down.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.pollLoop(ctx)
}

// Stop gracefully stops the polling loop, waiting for an in-flight cycle
// to finish. Safe to call multiple times.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
}

// PollNow requests an immediate cycle outside the regular interval, for
// example from an operator command. Coalesces if a request is pending.
func (c *Collector) PollNow() {
	select {
	case c.pollNow <- struct{}{}:
	default:
	}
}

// pollLoop runs cycles on the interval and on demand.
func (c *Collector) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-c.pollNow:
			c.runCycle(ctx)
		case <-ticker.C:
			c.runCycle(ctx)
		}
	}
}

// runCycle polls every device in the snapshot once, then refreshes the
// snapshot if anything was ingested.
func (c *Collector) runCycle(ctx context.Context) {
	devices := c.registry.Devices()
	start := time.Now()
	ingested := false
	failures := 0

	for _, device := range devices {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		stored, err := c.pollDevice(ctx, device)
		if err != nil {
			// Next cycle retries; other devices proceed
			c.logger.Warn("device poll failed",
				"device_id", device.ID,
				"device", device.Name,
				"error", err)
			failures++
		}
		if stored {
			ingested = true
		}
	}

	if ingested {
		if err := c.registry.Refresh(ctx); err != nil {
			c.logger.Error("snapshot refresh after cycle failed", "error", err)
		}
	}

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.WritePollCycle(len(devices), failures, duration)
	}

	c.logger.Info("polling cycle complete",
		"devices", len(devices),
		"failures", failures,
		"ingested", ingested,
		"duration", duration.Round(time.Millisecond).String())
}

// pollDevice contacts one device and ingests whatever is new. Returns
// whether anything was stored.
func (c *Collector) pollDevice(ctx context.Context, device *ied.Device) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.contactTimeout)
	defer cancel()

	if err := c.scanner.Connect(ctx, device); err != nil {
		c.tracker.MarkConnected(ctx, device.ID, false)
		return false, err
	}
	c.tracker.MarkConnected(ctx, device.ID, true)

	offered, err := c.scanner.ListFiles(ctx, device)
	if err != nil {
		return false, err
	}

	fresh, err := c.dedup.FilterNew(ctx, device.ID, offered)
	if err != nil {
		return false, err
	}
	if len(fresh) == 0 {
		return false, nil
	}

	comtrade, plain := splitComtrade(fresh)

	// Recordings first: if the retrieval ledger write below fails, the
	// worst case is a re-download next cycle, not a lost capture.
	if len(comtrade) > 0 {
		recordings, err := c.scanner.DownloadRecordings(ctx, device, comtrade)
		if err != nil {
			return false, err
		}
		if err := c.ingestor.StoreRecordings(ctx, device.ID, recordings); err != nil {
			return false, err
		}
	}

	var files []ied.IEDFile
	if len(plain) > 0 {
		files, err = c.scanner.DownloadFiles(ctx, device, plain)
		if err != nil {
			// Recordings may already be committed above
			return len(comtrade) > 0, err
		}
	}
	// Every retrieved descriptor enters the ledger, COMTRADE members
	// included, so the next cycle's filter sees them as stored.
	for _, f := range comtrade {
		files = append(files, ied.IEDFile{FileName: f.FileName, FileSize: f.FileSize})
	}
	if err := c.ingestor.StoreFiles(ctx, device.ID, files); err != nil {
		return len(comtrade) > 0, err
	}

	return true, nil
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
func (noopLogger) Debug(msg string, args ...any) {}
