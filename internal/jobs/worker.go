// Package jobs runs periodic background work for the daemon.
package jobs

import (
	"context"
	"log"
	"time"
)

// Refresher is the unit of periodic work, e.g. a template catalog reload
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Worker invokes a Refresher on a fixed interval until stopped
type Worker struct {
	refresher Refresher
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(refresher Refresher, interval time.Duration) *Worker {
	return &Worker{
		refresher: refresher,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the worker's refresh loop. Blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("catalog worker started with refresh interval: %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("catalog worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("catalog worker stopped: stop signal received")
			return
		case <-ticker.C:
			if err := w.refresher.Refresh(ctx); err != nil {
				log.Printf("catalog refresh failed: %v", err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("catalog worker shutdown complete")
}
