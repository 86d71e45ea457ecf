package login

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// Factory builds an unmounted controller for a role and client
type Factory func(role domain.Role, clientID string) (*Controller, error)

type managerKey struct {
	role     domain.Role
	clientID string
}

type managerEntry struct {
	controller *Controller
	lastUsed   time.Time
}

// Manager keeps the mounted login view of every client and role
type Manager struct {
	factory Factory
	clock   clockwork.Clock
	idleTTL time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[managerKey]*managerEntry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a manager. Controllers idle for longer than idleTTL are
// unmounted; a zero idleTTL disables the sweep.
func NewManager(factory Factory, clock clockwork.Clock, idleTTL time.Duration, logger *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		factory: factory,
		clock:   clock,
		idleTTL: idleTTL,
		logger:  logger,
		entries: make(map[managerKey]*managerEntry),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if idleTTL > 0 {
		go m.sweepLoop(ctx, clock.NewTicker(idleTTL/2))
	} else {
		close(m.done)
	}
	return m
}

// Mount replaces the view of role and client with a freshly mounted one
func (m *Manager) Mount(ctx context.Context, role domain.Role, clientID string) (*Controller, Snapshot, error) {
	if !role.Valid() {
		return nil, Snapshot{}, fmt.Errorf("unknown role %q", role)
	}
	controller, err := m.factory(role, clientID)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("failed to create login controller: %w", err)
	}

	key := managerKey{role: role, clientID: clientID}
	m.mu.Lock()
	if old, ok := m.entries[key]; ok {
		old.controller.Unmount()
	}
	m.entries[key] = &managerEntry{controller: controller, lastUsed: m.clock.Now()}
	m.mu.Unlock()

	return controller, controller.Mount(ctx), nil
}

// Get returns the mounted view of role and client
func (m *Manager) Get(role domain.Role, clientID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[managerKey{role: role, clientID: clientID}]
	if !ok {
		return nil, false
	}
	entry.lastUsed = m.clock.Now()
	return entry.controller, true
}

// Unmount removes the view of role and client
func (m *Manager) Unmount(role domain.Role, clientID string) bool {
	key := managerKey{role: role, clientID: clientID}
	m.mu.Lock()
	entry, ok := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()

	if ok {
		entry.controller.Unmount()
	}
	return ok
}

// Len returns the number of mounted views
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweep and unmounts every view
func (m *Manager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[managerKey]*managerEntry)
	m.mu.Unlock()

	for _, entry := range entries {
		entry.controller.Unmount()
	}
	for _, entry := range entries {
		entry.controller.Wait()
	}
}

func (m *Manager) sweepLoop(ctx context.Context, ticker clockwork.Ticker) {
	defer close(m.done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := m.sweep(); n > 0 {
				m.logger.Info("unmounted idle login views", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) sweep() int {
	cutoff := m.clock.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var idle []*Controller
	for key, entry := range m.entries {
		if entry.lastUsed.Before(cutoff) {
			idle = append(idle, entry.controller)
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	for _, controller := range idle {
		controller.Unmount()
	}
	return len(idle)
}
