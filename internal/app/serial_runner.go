package app

import (
	"context"
	"sync"
)

// SerialRunner makes concurrent RunDaily calls wait for each other, so a manual
// run never overlaps a scheduled one.
type SerialRunner struct {
	mu     sync.Mutex
	runner Runner
}

func NewSerialRunner(r Runner) *SerialRunner {
	return &SerialRunner{runner: r}
}

func (s *SerialRunner) RunDaily(ctx context.Context) RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.RunDaily(ctx)
}
