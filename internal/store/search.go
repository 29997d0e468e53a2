package store

import (
	"context"
	"sync"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/status"
)

// Search holds the unified search results. Each query replaces all three
// result sets wholesale; navigating away clears them.
type Search struct {
	api *api.Client
	bus *bus.Bus

	mu sync.RWMutex
	tracked
	query   string
	results api.SearchResults
}

// NewSearch creates the search store.
func NewSearch(client *api.Client, b *bus.Bus) *Search {
	return &Search{api: client, bus: b, tracked: newTracked()}
}

// Run executes a query and replaces the held results.
func (s *Search) Run(ctx context.Context, query string) error {
	s.mu.Lock()
	s.begin()
	s.query = query
	s.mu.Unlock()

	results, err := s.api.Search(ctx, query)
	if err != nil {
		s.mu.Lock()
		s.fail(api.Message(err, "Search failed"))
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.query == query { // a newer query may have replaced this one
		s.results = *results
		s.ok()
	}
	s.mu.Unlock()
	s.bus.Publish(bus.Event{Topic: bus.TopicSearchResults, Payload: query})
	return nil
}

// Clear drops query and results when the search view is left.
func (s *Search) Clear() {
	s.mu.Lock()
	s.query = ""
	s.results = api.SearchResults{}
	s.tracked = newTracked()
	s.mu.Unlock()
}

// Results returns a snapshot of the current result sets.
func (s *Search) Results() api.SearchResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// Query returns the query the held results answer, or empty.
func (s *Search) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Status returns the store's request status.
func (s *Search) Status() status.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the last error message, or empty.
func (s *Search) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
