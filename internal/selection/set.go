package selection

// Set tracks which bundle candidates are currently selected.
// Order follows the candidate list; membership is kept separately.
// A Set is owned by a single page view and is not safe for concurrent use.
type Set struct {
	order    []string
	known    map[string]struct{}
	selected map[string]struct{}
}

func New() *Set {
	return &Set{
		known:    make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

// Initialize replaces the set with the given candidate ids, all selected.
func (s *Set) Initialize(candidateIDs []string) {
	s.order = make([]string, 0, len(candidateIDs))
	s.known = make(map[string]struct{}, len(candidateIDs))
	s.selected = make(map[string]struct{}, len(candidateIDs))

	for _, id := range candidateIDs {
		if _, dup := s.known[id]; dup {
			continue
		}
		s.order = append(s.order, id)
		s.known[id] = struct{}{}
		s.selected[id] = struct{}{}
	}
}

// Toggle flips membership of id. Unknown ids are ignored.
func (s *Set) Toggle(id string) {
	if _, ok := s.known[id]; !ok {
		return
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

func (s *Set) Contains(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// IDs returns the selected ids in candidate order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Set) Len() int {
	return len(s.selected)
}
