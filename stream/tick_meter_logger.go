package stream

import (
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/afsmo/common"
	"log/slog"
	"sync"
	"time"
)

// ProgressMeter periodically logs the rate at which batch jobs finish.
type ProgressMeter struct {
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once

	reg       metrics.Registry
	ok        metrics.Counter
	failed    metrics.Counter
	points    metrics.Counter
	jobsMeter metrics.Meter
}

func NewProgressMeter(interval time.Duration) *ProgressMeter {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true

	reg := metrics.NewRegistry()
	pm := &ProgressMeter{
		reg:       reg,
		interval:  interval,
		started:   time.Now(),
		done:      make(chan struct{}),
		ok:        metrics.NewCounter(),
		failed:    metrics.NewCounter(),
		points:    metrics.NewCounter(),
		jobsMeter: metrics.NewMeter(),
	}

	if err := reg.Register("jobs.ok", pm.ok); err != nil {
		panic(err)
	}
	if err := reg.Register("jobs.failed", pm.failed); err != nil {
		panic(err)
	}
	if err := reg.Register("points.count", pm.points); err != nil {
		panic(err)
	}
	if err := reg.Register("jobs.meter", pm.jobsMeter); err != nil {
		panic(err)
	}
	pm.ticker = time.NewTicker(interval)
	go pm.run()
	return pm
}

// Mark records one finished job and the number of points it produced.
func (pm *ProgressMeter) Mark(ok bool, points int) {
	if ok {
		pm.ok.Inc(1)
		pm.points.Inc(int64(points))
	} else {
		pm.failed.Inc(1)
	}
	pm.jobsMeter.Mark(1)
}

// Counts returns the number of successful and failed jobs so far.
func (pm *ProgressMeter) Counts() (ok, failed int64) {
	return pm.ok.Snapshot().Count(), pm.failed.Snapshot().Count()
}

func (pm *ProgressMeter) run() {
	for {
		select {
		case <-pm.done:
			return
		case <-pm.ticker.C:
			pm.Log()
		}
	}
}

func (pm *ProgressMeter) Log() {
	snap := pm.jobsMeter.Snapshot()
	ok, failed := pm.Counts()
	slog.Info("Smoothed airfoils", "ok", humanize.Comma(ok),
		"failed", humanize.Comma(failed),
		"points", humanize.Comma(pm.points.Snapshot().Count()),
		"jobs/min", common.DecimalToFixed(snap.Rate1()*60, 1),
		"running", time.Since(pm.started).Round(time.Second))
}

func (pm *ProgressMeter) Stop() {
	if pm == nil {
		return
	}
	pm.once.Do(func() {
		pm.ticker.Stop()
		close(pm.done)
		pm.jobsMeter.Stop()
	})
}
