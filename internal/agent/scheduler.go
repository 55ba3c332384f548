package agent

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SchedulerConfig controls the duty loop timing.
type SchedulerConfig struct {
	// TickInterval is the pause between successful duty cycles.
	TickInterval time.Duration

	// ErrorBackoff is the pause after a failed or panicked cycle.
	ErrorBackoff time.Duration

	// Disabled skips starting the duty loops entirely; agents stay
	// listed and teachable.
	Disabled bool
}

// Scheduler runs each agent's duty loop on its own goroutine.
//
// Agents are isolated from each other: a failing or panicking policy backs
// off and retries without affecting the rest of the roster.
type Scheduler struct {
	agents []*Agent
	cfg    SchedulerConfig
	logger Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the given roster.
func NewScheduler(agents []*Agent, cfg SchedulerConfig, logger Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 15 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{
		agents: agents,
		cfg:    cfg,
		logger: logger,
	}
}

// Start launches one duty loop per active agent. It returns immediately;
// the loops run until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.cfg.Disabled {
		s.logger.Warn("background agents disabled, duty loops not started")
		return nil
	}

	for _, a := range s.agents {
		if !a.IsActive() {
			continue
		}
		s.wg.Add(1)
		go s.runLoop(ctx, a)
	}
	s.running = true

	s.logger.Info("agent scheduler started",
		"agents", len(s.agents),
		"tick_interval", s.cfg.TickInterval.String(),
	)
	return nil
}

// Stop deactivates all agents and waits for their loops to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	for _, a := range s.agents {
		a.Deactivate()
	}
	s.wg.Wait()
	s.logger.Info("agent scheduler stopped")
}

// runLoop executes one agent's duty cycle until cancellation or
// deactivation.
func (s *Scheduler) runLoop(ctx context.Context, a *Agent) {
	defer s.wg.Done()

	for {
		if ctx.Err() != nil || !a.IsActive() {
			return
		}

		pause := s.cfg.TickInterval
		if err := s.runDuty(ctx, a); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("agent duty failed",
				"agent", a.Name,
				"error", err,
			)
			pause = s.cfg.ErrorBackoff
		}

		if !sleepCtx(ctx, pause) {
			return
		}
	}
}

// runDuty executes a single cycle, converting panics into errors so one
// misbehaving policy cannot take the process down.
func (s *Scheduler) runDuty(ctx context.Context, a *Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("duty panicked: %v", r)
		}
	}()
	return a.executeDuty(ctx)
}

// sleepCtx pauses for d, returning false if the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
