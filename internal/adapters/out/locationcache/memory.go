// Package locationcache holds the LocationCache adapters: an in-process bounded LRU for
// single-instance deployments and a Redis-backed cache shared by every instance.
//
// Both keep at most capacity drivers, expire a fix ttl after it was written and ignore a
// fix older than the one already held for the same driver.
package locationcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ ports.LocationCache = (*Memory)(nil)

// Memory is a LocationCache kept in process memory.
type Memory struct {
	mu  sync.Mutex
	lru *expirable.LRU[kernel.UUID, ports.DriverLocation]
}

func NewMemory(capacity int, ttl time.Duration) (*Memory, error) {
	if capacity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("capacity", fmt.Errorf("%d is not positive", capacity))
	}
	if ttl <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("ttl", fmt.Errorf("%s is not positive", ttl))
	}
	return &Memory{lru: expirable.NewLRU[kernel.UUID, ports.DriverLocation](capacity, nil, ttl)}, nil
}

func (m *Memory) Put(_ context.Context, loc ports.DriverLocation) error {
	if err := validate(loc); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.lru.Peek(loc.DriverID); ok && current.RecordedAt.After(loc.RecordedAt) {
		return nil
	}
	m.lru.Add(loc.DriverID, loc)
	return nil
}

func (m *Memory) Get(_ context.Context, driverID kernel.UUID) (ports.DriverLocation, error) {
	loc, ok := m.lru.Get(driverID)
	if !ok {
		return ports.DriverLocation{}, errs.NewObjectNotFoundError("driver location", driverID)
	}
	return loc, nil
}

func validate(loc ports.DriverLocation) error {
	if err := loc.DriverID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driver id", err)
	}
	if err := loc.Point.Validate(); err != nil {
		return err
	}
	if loc.RecordedAt.IsZero() {
		return errs.NewValueIsRequiredError("recorded at")
	}
	return nil
}
