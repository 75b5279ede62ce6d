// Package health runs periodic ledger reachability probes and exposes the
// most recent result to the /healthz endpoint.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/batchtrace/batchtrace/internal/ledger"
	"go.uber.org/zap"
)

// probeKey is a reserved key the checker lists to exercise the ledger RPC
// path. No snapshot is ever published under it, so the probe is read-only
// and an empty result still proves reachability.
const probeKey = "__healthprobe__"

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Checker periodically probes the ledger and remembers the last outcome.
type Checker struct {
	client    ledger.Client
	stream    string
	cfg       Config
	onMetrics MetricsRecordFunc

	mu      sync.Mutex
	healthy bool
	lastErr error

	logger *zap.Logger
}

// New creates a Checker. The initial state is healthy until the first probe
// says otherwise.
func New(client ledger.Client, stream string, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	return &Checker{
		client:  client,
		stream:  stream,
		cfg:     cfg,
		healthy: true,
		logger:  logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Start runs the probe loop until quit is signalled.
func (c *Checker) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ProbeTimeout)
			c.Check(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// Check performs one probe and updates the stored status.
func (c *Checker) Check(ctx context.Context) bool {
	_, err := c.client.ListForKey(ctx, c.stream, probeKey)
	success := err == nil

	if c.onMetrics != nil {
		c.onMetrics(success)
	}

	c.mu.Lock()
	wasHealthy := c.healthy
	c.healthy = success
	c.lastErr = err
	c.mu.Unlock()

	if !success && wasHealthy {
		c.logger.Warn("ledger probe failed", zap.Error(err))
	} else if success && !wasHealthy {
		c.logger.Info("ledger probe recovered")
	}
	return success
}

// Status returns the outcome of the most recent probe.
func (c *Checker) Status() (healthy bool, lastErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}
