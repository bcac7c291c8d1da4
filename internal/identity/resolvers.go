package identity

import (
	"log/slog"
	"sync"
	"time"
)

const (
	resolverIdleTTL    = 30 * time.Minute
	resolverSweepEvery = 5 * time.Minute
)

// Resolvers maps live session IDs to their Resolver. One resolver per
// session keeps principal swaps on a session ordered through a single
// generation counter; sessions that go quiet are swept lazily.
type Resolvers struct {
	svc    *Service
	logger *slog.Logger

	mu        sync.Mutex
	entries   map[string]*resolverEntry
	lastSweep time.Time
}

type resolverEntry struct {
	res     *Resolver
	touched time.Time
}

// NewResolvers constructs an empty registry backed by the given service.
func NewResolvers(svc *Service, logger *slog.Logger) *Resolvers {
	return &Resolvers{
		svc:       svc,
		logger:    logger,
		entries:   make(map[string]*resolverEntry),
		lastSweep: time.Now(),
	}
}

// For returns the resolver for the given session, creating one on first
// use.
func (rs *Resolvers) For(sessionID string) *Resolver {
	now := time.Now()

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.sweepLocked(now)

	e, ok := rs.entries[sessionID]
	if !ok {
		e = &resolverEntry{res: NewResolver(rs.svc, rs.logger)}
		rs.entries[sessionID] = e
	}
	e.touched = now
	return e.res
}

// Drop signs the session's resolver out and removes it from the registry.
// Called when a session is destroyed or its ID rotated.
func (rs *Resolvers) Drop(sessionID string) {
	rs.mu.Lock()
	e, ok := rs.entries[sessionID]
	delete(rs.entries, sessionID)
	rs.mu.Unlock()

	if ok {
		e.res.SignOut()
	}
}

// Invalidate drops the service-level cache for a principal and the derived
// role/tenant state of every live resolver holding it. Sessions signed in
// as that principal re-fetch on next use. Implements users.RoleInvalidator.
func (rs *Resolvers) Invalidate(principalID int64) {
	rs.svc.Invalidate(principalID)

	rs.mu.Lock()
	resolvers := make([]*Resolver, 0, len(rs.entries))
	for _, e := range rs.entries {
		resolvers = append(resolvers, e.res)
	}
	rs.mu.Unlock()

	for _, r := range resolvers {
		r.dropDerived(principalID)
	}
}

func (rs *Resolvers) sweepLocked(now time.Time) {
	if now.Sub(rs.lastSweep) < resolverSweepEvery {
		return
	}
	rs.lastSweep = now
	for id, e := range rs.entries {
		if now.Sub(e.touched) > resolverIdleTTL {
			delete(rs.entries, id)
		}
	}
}
