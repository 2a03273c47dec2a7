package orderview

import (
	"sync"

	"github.com/CameronXie/order-desk/internal/domain"
)

// Selection is an ordered set of order ids. Adding an id twice keeps one entry.
type Selection struct {
	mu    sync.RWMutex
	ids   []string
	index map[string]struct{}
}

// NewSelection creates a Selection holding the distinct non-empty ids.
func NewSelection(ids ...string) *Selection {
	s := &Selection{index: make(map[string]struct{})}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Toggle adds id when absent and removes it otherwise.
func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		s.remove(id)
		return
	}
	s.add(id)
}

// SelectAll selects every order of the list, or clears the selection when
// all of them are already selected.
func (s *Selection) SelectAll(orders []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := len(orders) > 0
	for i := range orders {
		if _, ok := s.index[orders[i].OrderID]; !ok {
			all = false
			break
		}
	}

	if all {
		s.clear()
		return
	}
	for i := range orders {
		s.add(orders[i].OrderID)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.ids...)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Filter returns the orders of source that are selected, in source order.
// An empty selection returns source unchanged.
func (s *Selection) Filter(source []domain.Order) []domain.Order {
	if s.Len() == 0 {
		return source
	}

	out := make([]domain.Order, 0, s.Len())
	for i := range source {
		if s.Contains(source[i].OrderID) {
			out = append(out, source[i])
		}
	}
	return out
}

func (s *Selection) add(id string) {
	if id == "" {
		return
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *Selection) clear() {
	s.ids = nil
	s.index = make(map[string]struct{})
}
