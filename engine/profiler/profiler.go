// Package profiler reports frame rate and memory statistics from the frame loop.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Stats is one reporting window.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64 // MB allocated per second during the window
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64 // largest GC pause since the previous report
	SysMB       float64
}

// Profiler counts frames and logs Stats once per interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now    func() time.Time
	logger *zap.Logger
}

// NewProfiler creates a Profiler that reports through logger every interval.
// A non-positive interval defaults to 1 second.
//
// Parameters:
//   - interval: the reporting interval
//   - logger: the zap logger, nil for no output
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration, logger *zap.Logger) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
		logger:         logger.Named("profiler"),
	}
}

// Tick should be called once per frame. When the interval has elapsed it samples memory
// statistics, logs them and starts a new window.
//
// Returns:
//   - Stats: the window's statistics, zero when nothing was reported
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	if stats.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		stats.LastPauseUs = p.memStats.PauseNs[(stats.GCCount-1)%256] / 1000

		start := p.lastGCCount
		if stats.GCCount-start > 256 {
			start = stats.GCCount - 256
		}
		for i := start; i < stats.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", stats.FPS),
		zap.Float64("heap_mb", stats.HeapMB),
		zap.Float64("alloc_rate_mb_s", stats.AllocRateMB),
		zap.Uint32("gc", stats.GCCount),
		zap.Uint64("gc_last_us", stats.LastPauseUs),
		zap.Uint64("gc_max_us", stats.MaxPauseUs),
		zap.Float64("sys_mb", stats.SysMB),
	)

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
