package app

import (
	"context"
	"sync"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Loop is one supervised background loop. Run must return nil once ctx is done.
type Loop struct {
	Name string
	Run  func(ctx context.Context) error
}

// Service supervises the background loops. A loop that fails stops the others.
type Service struct {
	logger ports.Logger
	loops  []Loop

	mu  sync.Mutex
	run *serviceRun
}

type serviceRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewService creates a Service for loops.
func NewService(logger ports.Logger, loops ...Loop) *Service {
	return &Service{logger: logger, loops: loops}
}

// Start launches every loop and returns immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return domain.ErrServiceRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	for _, loop := range s.loops {
		g.Go(func() error {
			if err := loop.Run(gctx); err != nil {
				return zerr.With(zerr.Wrap(err, "background loop failed"), "loop", loop.Name)
			}
			return nil
		})
	}

	run := &serviceRun{cancel: cancel, done: make(chan struct{})}
	go func() {
		run.err = g.Wait()
		cancel()
		close(run.done)
	}()
	s.run = run

	s.logger.Info("service started")
	return nil
}

// Done is closed once every loop has returned. It is nil before Start.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.done
}

// Stop cancels the loops, waits for them and returns the first loop failure.
// Stopping a service that is not running is a no-op.
func (s *Service) Stop() error {
	s.mu.Lock()
	run := s.run
	s.run = nil
	s.mu.Unlock()

	if run == nil {
		return nil
	}

	run.cancel()
	<-run.done
	s.logger.Info("service stopped")
	return run.err
}
