package base

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/transport"
	"golang.org/x/sync/semaphore"
)

// --------------------------------------------------------------------------
// Channel Semaphore Guard
// --------------------------------------------------------------------------

// semaphoreGuard is a counting semaphore built on a buffered channel.
// Acquire blocks while all permits are taken.
type semaphoreGuard struct {
	slots chan struct{}
}

// NewSemaphoreGuard creates a channel based guard with the given number of permits.
// One permit gives single-writer access.
func NewSemaphoreGuard(permits int) transport.IGuard {
	if permits < 1 {
		permits = 1
	}
	return &semaphoreGuard{slots: make(chan struct{}, permits)}
}

func (g *semaphoreGuard) Acquire() {
	g.slots <- struct{}{}
}

func (g *semaphoreGuard) Release() {
	select {
	case <-g.slots:
	default:
		panic("guard: release without acquire")
	}
}

// --------------------------------------------------------------------------
// Weighted Semaphore Guard
// --------------------------------------------------------------------------

// weightedGuard adapts a semaphore.Weighted to the guard interface.
// Waiters are served in FIFO order.
type weightedGuard struct {
	sem *semaphore.Weighted
}

// NewWeightedGuard creates a guard backed by golang.org/x/sync/semaphore
func NewWeightedGuard(permits int) transport.IGuard {
	if permits < 1 {
		permits = 1
	}
	return &weightedGuard{sem: semaphore.NewWeighted(int64(permits))}
}

func (g *weightedGuard) Acquire() {
	// Background never cancels, so Acquire only returns once granted
	_ = g.sem.Acquire(context.Background(), 1)
}

func (g *weightedGuard) Release() {
	g.sem.Release(1)
}

// --------------------------------------------------------------------------
// Guard Factory
// --------------------------------------------------------------------------

// NewGuard creates the guard described by the config
func NewGuard(config common.ClientConfig) (transport.IGuard, error) {
	switch config.Guard {
	case common.GuardTypeSemaphore, "":
		return NewSemaphoreGuard(config.GuardPermits), nil
	case common.GuardTypeWeighted:
		return NewWeightedGuard(config.GuardPermits), nil
	default:
		return nil, fmt.Errorf("invalid guard %s (expected one of: semaphore, weighted)", config.Guard)
	}
}
