package history

import (
	"log"

	"designer/internal/domain"
)

// DefaultLimit bounds the number of retained entries.
const DefaultLimit = 40

// Entry is an immutable snapshot of a scene's elements.
type Entry struct {
	Seq      int64            `json:"seq"`
	Label    string           `json:"label"`
	Elements []domain.Element `json:"elements"`
}

// Store persists a linear history. Seq values are strictly increasing per key.
type Store interface {
	// Push drops every entry after afterSeq, inserts e and moves the cursor to it.
	Push(key string, afterSeq int64, e Entry, limit int) error
	// Move sets the cursor to seq.
	Move(key string, seq int64) error
	// Load returns entries in seq order and the cursor seq; no entries means no history yet.
	Load(key string) ([]Entry, int64, error)
}

// Manager is a linear undo/redo stack over full element snapshots.
// The live scene equals the entry at the cursor right after Undo or Redo;
// between commits callers may hold diverging in-progress state.
type Manager struct {
	entries []Entry
	cursor  int
	nextSeq int64
	limit   int

	store Store
	key   string
}

// New starts a history whose only entry is the initial elements.
func New(initial []domain.Element) *Manager {
	return &Manager{
		entries: []Entry{{Seq: 1, Label: "initial", Elements: domain.CloneElements(nonNil(initial))}},
		nextSeq: 2,
		limit:   DefaultLimit,
	}
}

// SetLimit changes the retention bound; values < 2 are ignored.
func (m *Manager) SetLimit(n int) {
	if n < 2 {
		return
	}
	m.limit = n
	m.prune()
}

// Attach binds the manager to a persistent store under key. When the store
// already holds history for key, it replaces the in-memory entries.
func (m *Manager) Attach(store Store, key string) error {
	entries, cursorSeq, err := store.Load(key)
	if err != nil {
		return err
	}
	m.store, m.key = store, key
	if len(entries) == 0 {
		// Seed the store with the current state so reloads start from it.
		cur := m.entries[m.cursor]
		m.entries = []Entry{cur}
		m.cursor = 0
		return store.Push(key, 0, cur, m.limit)
	}
	m.entries = entries
	m.cursor = len(entries) - 1
	for i, e := range entries {
		if e.Seq == cursorSeq {
			m.cursor = i
		}
		if e.Seq >= m.nextSeq {
			m.nextSeq = e.Seq + 1
		}
	}
	m.prune()
	return nil
}

// Commit truncates any redo branch, appends a snapshot of elements and
// advances the cursor to it.
func (m *Manager) Commit(label string, elements []domain.Element) {
	after := m.entries[m.cursor].Seq
	m.entries = m.entries[:m.cursor+1]
	e := Entry{Seq: m.nextSeq, Label: label, Elements: domain.CloneElements(nonNil(elements))}
	m.nextSeq++
	m.entries = append(m.entries, e)
	m.cursor = len(m.entries) - 1
	m.prune()

	if m.store != nil {
		if err := m.store.Push(m.key, after, e, m.limit); err != nil {
			log.Printf("[HISTORY] persist %s for %s: %v", label, m.key, err)
		}
	}
}

// Undo moves the cursor back and returns the snapshot there.
// At the first entry it is a no-op and reports false.
func (m *Manager) Undo() ([]domain.Element, bool) {
	if m.cursor == 0 {
		return nil, false
	}
	m.cursor--
	m.persistCursor()
	return m.Current(), true
}

// Redo moves the cursor forward and returns the snapshot there.
// At the last entry it is a no-op and reports false.
func (m *Manager) Redo() ([]domain.Element, bool) {
	if m.cursor >= len(m.entries)-1 {
		return nil, false
	}
	m.cursor++
	m.persistCursor()
	return m.Current(), true
}

// Current returns a copy of the snapshot at the cursor.
func (m *Manager) Current() []domain.Element {
	return domain.CloneElements(m.entries[m.cursor].Elements)
}

func (m *Manager) CanUndo() bool { return m.cursor > 0 }
func (m *Manager) CanRedo() bool { return m.cursor < len(m.entries)-1 }
func (m *Manager) Cursor() int   { return m.cursor }
func (m *Manager) Len() int      { return len(m.entries) }

// Labels returns the entry labels in order, for display.
func (m *Manager) Labels() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Label
	}
	return out
}

func (m *Manager) persistCursor() {
	if m.store == nil {
		return
	}
	if err := m.store.Move(m.key, m.entries[m.cursor].Seq); err != nil {
		log.Printf("[HISTORY] move cursor for %s: %v", m.key, err)
	}
}

// prune drops the oldest entries beyond the limit, keeping the cursor on the
// same snapshot.
func (m *Manager) prune() {
	over := len(m.entries) - m.limit
	if over <= 0 {
		return
	}
	if over > m.cursor {
		over = m.cursor
	}
	m.entries = append([]Entry(nil), m.entries[over:]...)
	m.cursor -= over
}

func nonNil(in []domain.Element) []domain.Element {
	if in == nil {
		return []domain.Element{}
	}
	return in
}
