// Package scheduler drives the automation engine on independent timers:
// inbound polling, scheduled-message processing, drip queue processing, and
// the daily retry sweep.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

// Minimal internal interfaces so the engine can be unit tested with small
// fake processors.

type scheduledProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) (domain.ProcessResult, error)
	RetrySweep(ctx context.Context) (int64, error)
}

type dripProcessor interface {
	ProcessQueue(ctx context.Context, now time.Time) (domain.ProcessResult, error)
}

type inboundPoller interface {
	PollIncoming(ctx context.Context, now time.Time) error
}

// Engine owns the periodic ticks. The three processing entry points run
// concurrently relative to each other (they touch disjoint row sets), but
// overlapping ticks of the same entry point are skipped via per-job
// in-flight flags: the datastore's row update is the only other safety net
// against double sends.
type Engine struct {
	scheduled  scheduledProcessor
	drip       dripProcessor
	reconciler inboundPoller

	pollInterval    time.Duration
	processInterval time.Duration
	sweepInterval   time.Duration

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	pollBusy      atomic.Bool
	scheduledBusy atomic.Bool
	dripBusy      atomic.Bool
	sweepBusy     atomic.Bool

	// Statistics
	startedAt       time.Time
	messagesSent    int64
	messagesFailed  int64
	pollRuns        int64
	scheduledRuns   int64
	dripRuns        int64
	sweepRuns       int64
	lastPollAt      time.Time
	lastScheduledAt time.Time
	lastDripAt      time.Time
}

func NewEngine(
	scheduled scheduledProcessor,
	drip dripProcessor,
	reconciler inboundPoller,
	cfg environments.EngineConfig,
) *Engine {
	return &Engine{
		scheduled:       scheduled,
		drip:            drip,
		reconciler:      reconciler,
		pollInterval:    cfg.PollInterval,
		processInterval: cfg.ProcessInterval,
		sweepInterval:   cfg.SweepInterval,
	}
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()

	if e.running {
		e.mu.Unlock()
		logger.Warnf("Engine is already running")
		return nil
	}

	e.running = true
	e.startedAt = time.Now()
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	e.mu.Unlock()

	logger.Infof("Starting engine: poll %v, process %v, sweep %v",
		e.pollInterval, e.processInterval, e.sweepInterval)

	go e.run(ctx)

	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneChan)

	pollTicker := time.NewTicker(e.pollInterval)
	defer pollTicker.Stop()
	processTicker := time.NewTicker(e.processInterval)
	defer processTicker.Stop()
	sweepTicker := time.NewTicker(e.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-pollTicker.C:
			go e.runPoll(ctx)

		case <-processTicker.C:
			go e.runScheduled(ctx)
			go e.runDrip(ctx)

		case <-sweepTicker.C:
			go e.runSweep(ctx)

		case <-e.stopChan:
			logger.Warnf("Engine received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Engine context cancelled")
			return
		}
	}
}

func (e *Engine) runPoll(ctx context.Context) {
	if !e.pollBusy.CompareAndSwap(false, true) {
		logger.Debugf("Inbound poll still running, skipping tick")
		return
	}
	defer e.pollBusy.Store(false)

	now := time.Now()
	if err := e.reconciler.PollIncoming(ctx, now); err != nil {
		logger.Errorf("Inbound poll failed: %v", err)
	}

	e.mu.Lock()
	e.pollRuns++
	e.lastPollAt = now
	e.mu.Unlock()
}

func (e *Engine) runScheduled(ctx context.Context) {
	if !e.scheduledBusy.CompareAndSwap(false, true) {
		logger.Debugf("Scheduled processor still running, skipping tick")
		return
	}
	defer e.scheduledBusy.Store(false)

	now := time.Now()
	result, err := e.scheduled.ProcessDue(ctx, now)
	if err != nil {
		logger.Errorf("Scheduled processing failed: %v", err)
	}

	e.mu.Lock()
	e.scheduledRuns++
	e.lastScheduledAt = now
	e.messagesSent += int64(result.Sent)
	e.messagesFailed += int64(result.Failed)
	e.mu.Unlock()
}

func (e *Engine) runDrip(ctx context.Context) {
	if !e.dripBusy.CompareAndSwap(false, true) {
		logger.Debugf("Drip processor still running, skipping tick")
		return
	}
	defer e.dripBusy.Store(false)

	now := time.Now()
	result, err := e.drip.ProcessQueue(ctx, now)
	if err != nil {
		logger.Errorf("Drip processing failed: %v", err)
	}

	e.mu.Lock()
	e.dripRuns++
	e.lastDripAt = now
	e.messagesSent += int64(result.Sent)
	e.messagesFailed += int64(result.Failed)
	e.mu.Unlock()
}

func (e *Engine) runSweep(ctx context.Context) {
	if !e.sweepBusy.CompareAndSwap(false, true) {
		return
	}
	defer e.sweepBusy.Store(false)

	if _, err := e.scheduled.RetrySweep(ctx); err != nil {
		logger.Errorf("Retry sweep failed: %v", err)
	}

	e.mu.Lock()
	e.sweepRuns++
	e.mu.Unlock()
}

func (e *Engine) Stop() error {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()
		logger.Warnf("Engine is not running")
		return nil
	}

	e.running = false
	stopChan := e.stopChan
	doneChan := e.doneChan
	e.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Engine stopped")
	return nil
}

func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

type EngineStatus struct {
	Running         bool      `json:"running"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
	MessagesSent    int64     `json:"messagesSent"`
	MessagesFailed  int64     `json:"messagesFailed"`
	PollRuns        int64     `json:"pollRuns"`
	ScheduledRuns   int64     `json:"scheduledRuns"`
	DripRuns        int64     `json:"dripRuns"`
	SweepRuns       int64     `json:"sweepRuns"`
	LastPollAt      time.Time `json:"lastPollAt,omitempty"`
	LastScheduledAt time.Time `json:"lastScheduledAt,omitempty"`
	LastDripAt      time.Time `json:"lastDripAt,omitempty"`
}

func (e *Engine) GetStatus() EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return EngineStatus{
		Running:         e.running,
		StartedAt:       e.startedAt,
		MessagesSent:    e.messagesSent,
		MessagesFailed:  e.messagesFailed,
		PollRuns:        e.pollRuns,
		ScheduledRuns:   e.scheduledRuns,
		DripRuns:        e.dripRuns,
		SweepRuns:       e.sweepRuns,
		LastPollAt:      e.lastPollAt,
		LastScheduledAt: e.lastScheduledAt,
		LastDripAt:      e.lastDripAt,
	}
}
