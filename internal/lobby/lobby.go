// Package lobby tracks the set of live tables and finds-or-creates one for
// a player joining ad hoc (spec.md "HTTP (external collaborator)": REST
// endpoints to create/list/join tables delegate here).
package lobby

import (
	"fmt"
	"log"
	"sync"
	"time"

	"holdemlite/holdem"
	"holdemlite/internal/ledger"
	"holdemlite/internal/table"
)

const (
	defaultIdleTableTTL    = 60 * time.Second
	defaultCleanupInterval = 30 * time.Second
)

// Lobby manages all table runtimes and their lifecycle.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Runtime
	nextID uint64

	defaultConfig holdem.Config
	ledger        ledger.Service

	idleTableTTL    time.Duration
	cleanupInterval time.Duration
	done            chan struct{}
	stopOnce        sync.Once
}

// New creates a Lobby backed by the given ledger service and starts its
// idle-table cleanup loop.
func New(ledgerService ledger.Service) *Lobby {
	l := &Lobby{
		tables:          make(map[string]*table.Runtime),
		defaultConfig:   holdem.DefaultConfig(),
		ledger:          ledgerService,
		idleTableTTL:    defaultIdleTableTTL,
		cleanupInterval: defaultCleanupInterval,
		done:            make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// CreateTable allocates a fresh table with the lobby's default config.
func (l *Lobby) CreateTable() (*table.Runtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	tableID := fmt.Sprintf("table_%d", l.nextID)
	rt, err := table.New(tableID, l.defaultConfig, l.ledger)
	if err != nil {
		return nil, err
	}
	l.tables[tableID] = rt
	log.Printf("[Lobby] created table %s", tableID)
	return rt, nil
}

// QuickStart finds an existing table with a free seat, preferring one the
// user is already part of, or creates a new one.
func (l *Lobby) QuickStart(userID uint64) (*table.Runtime, error) {
	l.mu.Lock()
	existing := make([]*table.Runtime, 0, len(l.tables))
	for _, rt := range l.tables {
		existing = append(existing, rt)
	}
	l.mu.Unlock()

	for _, rt := range existing {
		for _, p := range rt.Table.PublicPlayers() {
			if p.UserID == userID {
				return rt, nil
			}
		}
	}
	for _, rt := range existing {
		if len(rt.Table.PublicPlayers()) < rt.Table.Config.MaxPlayers {
			return rt, nil
		}
	}
	return l.CreateTable()
}

// GetTable returns the runtime for tableID, if one exists.
func (l *Lobby) GetTable(tableID string) (*table.Runtime, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rt, ok := l.tables[tableID]
	return rt, ok
}

// ListTables returns all live table IDs.
func (l *Lobby) ListTables() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.tables))
	for id := range l.tables {
		ids = append(ids, id)
	}
	return ids
}

func (l *Lobby) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.CleanupIdleTables()
		case <-l.done:
			return
		}
	}
}

// CleanupIdleTables removes and stops tables with no sessions or seated
// players (spec.md §4.6 "remove the table if empty").
func (l *Lobby) CleanupIdleTables() int {
	l.mu.Lock()
	idle := make([]*table.Runtime, 0)
	for tableID, rt := range l.tables {
		if rt.IsEmpty() {
			delete(l.tables, tableID)
			idle = append(idle, rt)
		}
	}
	l.mu.Unlock()

	for _, rt := range idle {
		rt.Stop()
		log.Printf("[Lobby] removed idle table %s", rt.ID)
	}
	return len(idle)
}

// Stop shuts down the cleanup loop and every table runtime.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		tables := make([]*table.Runtime, 0, len(l.tables))
		for _, rt := range l.tables {
			tables = append(tables, rt)
		}
		l.tables = make(map[string]*table.Runtime)
		l.mu.Unlock()

		for _, rt := range tables {
			rt.Stop()
		}
	})
}
