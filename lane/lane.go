// Package lane runs work for the same key one at a time, in submission order,
// while different keys run in parallel.
package lane

import (
	"context"
	"sync"
)

type lane struct {
	queue []func()
}

type Lanes struct {
	mu    sync.Mutex
	lanes map[string]*lane
	wg    sync.WaitGroup
}

func New() *Lanes {
	return &Lanes{lanes: make(map[string]*lane)}
}

// Go queues fn behind earlier work for key and returns immediately.
func (l *Lanes) Go(key string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ln, ok := l.lanes[key]; ok {
		ln.queue = append(ln.queue, fn)
		return
	}
	ln := &lane{queue: []func(){fn}}
	l.lanes[key] = ln
	l.wg.Add(1)
	go l.drain(key, ln)
}

func (l *Lanes) drain(key string, ln *lane) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			delete(l.lanes, key)
			l.mu.Unlock()
			return
		}
		fn := ln.queue[0]
		ln.queue[0] = nil
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Do queues fn for key and waits for it to finish. If ctx ends first, Do
// returns ctx.Err() and fn is skipped when it has not started yet.
func (l *Lanes) Do(ctx context.Context, key string, fn func(ctx context.Context)) error {
	done := make(chan struct{})
	ran := false
	l.Go(key, func() {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		ran = true
		fn(ctx)
	})

	select {
	case <-done:
		if !ran {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports how many keys have queued or running work.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

// Wait blocks until every queued function has run.
func (l *Lanes) Wait() {
	l.wg.Wait()
}
