package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/connectivity"
)

// Snapshot represents the latest data available to the status view.
type Snapshot struct {
	Connectivity        connectivity.State
	Products            catalog.ProductListResponse
	HasProducts         bool
	Healthy             bool
	LoggedIn            bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the network is down or the API has been
// unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return !s.Connectivity.Connected || s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a store whose connectivity starts optimistic.
func NewStore() *Store {
	return &Store{snapshot: Snapshot{Connectivity: connectivity.State{Connected: true}}}
}

// Update records one refresh. When err is non-nil the previous page is kept
// but the error is recorded for visibility.
func (s *Store) Update(page *catalog.ProductListResponse, healthy bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Healthy = healthy
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if page != nil {
		s.snapshot.Products = clonePage(*page)
		s.snapshot.HasProducts = true
	} else {
		s.snapshot.HasProducts = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetConnectivity records the latest monitor state.
func (s *Store) SetConnectivity(c connectivity.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Connectivity = c
}

// SetLoggedIn records whether a bearer token is present.
func (s *Store) SetLoggedIn(loggedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LoggedIn = loggedIn
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Products = clonePage(s.snapshot.Products)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clonePage(page catalog.ProductListResponse) catalog.ProductListResponse {
	if len(page.Products) == 0 {
		page.Products = nil
		return page
	}
	dup := make([]catalog.Product, len(page.Products))
	copy(dup, page.Products)
	page.Products = dup
	return page
}
