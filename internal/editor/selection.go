package editor

// Selection is the transient set of selected element ids. The primary id is
// the most recently selected one and drives single-element edits.
type Selection struct {
	ids []string
}

// Select replaces the selection with id, or toggles id when additive.
// An empty id with additive=false clears the selection.
func (s *Selection) Select(id string, additive bool) {
	if !additive {
		s.ids = s.ids[:0]
		if id != "" {
			s.ids = append(s.ids, id)
		}
		return
	}
	if id == "" {
		return
	}
	if s.Remove(id) {
		return
	}
	s.ids = append(s.ids, id)
}

// Set replaces the selection with ids, the last becoming primary.
func (s *Selection) Set(ids []string) {
	s.ids = s.ids[:0]
	seen := map[string]bool{}
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			s.ids = append(s.ids, id)
		}
	}
}

// Remove drops id and reports whether it was selected.
func (s *Selection) Remove(id string) bool {
	for i, sel := range s.ids {
		if sel == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Selection) Clear() { s.ids = s.ids[:0] }

func (s *Selection) Has(id string) bool {
	for _, sel := range s.ids {
		if sel == id {
			return true
		}
	}
	return false
}

// Primary returns the primary selected id, or "".
func (s *Selection) Primary() string {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[len(s.ids)-1]
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *Selection) Len() int { return len(s.ids) }

// Lookup returns the selection as a set.
func (s *Selection) Lookup() map[string]bool {
	m := make(map[string]bool, len(s.ids))
	for _, id := range s.ids {
		m[id] = true
	}
	return m
}
