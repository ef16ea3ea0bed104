/*
 * Package metrics samples host CPU and memory usage while a cracking run
 * is active. The samples are diagnostic only: they go to the debug log,
 * never to the coordinator stream. The engine is CPU-bound, so a pegged
 * CPU with a low hash rate usually points at salt-heavy input rather
 * than a stalled engine.
 */
package metrics

import (
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// SystemMetrics holds one host resource sample
type SystemMetrics struct {
	CPUUsage    float64
	MemoryUsage float64
}

// Collector manages system metrics collection
type Collector struct {
	interval time.Duration
}

// Config defines the configuration for the metrics collector
type Config struct {
	CollectionInterval time.Duration
}

// New creates a new metrics collector
func New(config Config) (*Collector, error) {
	interval := config.CollectionInterval
	if interval == 0 {
		interval = 5 * time.Second
	}
	return &Collector{interval: interval}, nil
}

// Collect gathers current system metrics. Partial failures degrade to
// zero values rather than aborting the sample.
func (c *Collector) Collect() (*SystemMetrics, error) {
	metrics := &SystemMetrics{}

	percentage, err := cpu.Percent(0, false)
	if err != nil {
		debug.Error("Failed to collect CPU metrics: %v", err)
	} else if len(percentage) > 0 {
		metrics.CPUUsage = percentage[0]
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		debug.Error("Failed to collect memory metrics: %v", err)
	} else {
		metrics.MemoryUsage = vmem.UsedPercent
	}

	return metrics, nil
}

// Start launches a background sampling loop that logs each sample at
// debug level until stop closes.
func (c *Collector) Start(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sample, err := c.Collect()
				if err != nil {
					continue
				}
				debug.Debug("Host: CPU %.1f%%, memory %.1f%%", sample.CPUUsage, sample.MemoryUsage)
			}
		}
	}()
}

// GetInterval returns the collection interval
func (c *Collector) GetInterval() time.Duration {
	return c.interval
}
