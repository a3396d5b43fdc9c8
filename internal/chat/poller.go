package chat

import (
	"context"
	"log/slog"
	"time"
)

// Poll cadences. Run status is polled fast because it gates the whole UI;
// device enumeration is peripheral and polls slower on its own schedule.
const (
	RunStatusInterval = 2 * time.Second
	DeviceInterval    = 5 * time.Second
)

// RunStatusPoller periodically fetches the authoritative run status and
// feeds it to the controller's merge rule. Whatever the stream reader
// believes, this loop is what ultimately decides the loading/stopping flags,
// which is what keeps a dead stream from leaving the UI stuck "running".
type RunStatusPoller struct {
	ctrl     *Controller
	interval time.Duration
	log      *slog.Logger
}

// NewRunStatusPoller builds a poller over the controller's backend.
func NewRunStatusPoller(ctrl *Controller, interval time.Duration, log *slog.Logger) *RunStatusPoller {
	if interval <= 0 {
		interval = RunStatusInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &RunStatusPoller{ctrl: ctrl, interval: interval, log: log}
}

// Run polls until ctx is done. A failed poll is logged and skipped; the
// previous snapshot simply stays in effect until the next tick.
func (p *RunStatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *RunStatusPoller) poll(ctx context.Context) {
	rs, err := p.ctrl.backend.RunStatus(ctx)
	if err != nil {
		p.log.Warn("run status poll", "error", err)
		return
	}
	p.ctrl.ApplyRunStatus(ctx, rs)
}

// DevicePoller enumerates connected devices on a slow cadence and hands each
// snapshot to a callback. It deliberately does not share the run-status
// poller's merge rule: device state is display-only.
type DevicePoller struct {
	fetch    func(ctx context.Context) ([]string, error)
	apply    func(devices []string)
	interval time.Duration
	log      *slog.Logger
}

// NewDevicePoller builds a device poller from a fetch function and a sink.
func NewDevicePoller(fetch func(ctx context.Context) ([]string, error), apply func([]string), log *slog.Logger) *DevicePoller {
	if log == nil {
		log = slog.Default()
	}
	return &DevicePoller{fetch: fetch, apply: apply, interval: DeviceInterval, log: log}
}

// Run polls until ctx is done.
func (p *DevicePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *DevicePoller) poll(ctx context.Context) {
	devices, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("device poll", "error", err)
		return
	}
	p.apply(devices)
}
