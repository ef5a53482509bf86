package editor

import (
	"fmt"
	"sync"

	"designer/internal/domain"
	"designer/internal/history"
)

// ImageInvalidator drops cached bitmaps for elements that no longer exist.
type ImageInvalidator interface {
	Invalidate(id string)
}

// HistoryState describes the undo stack for display.
type HistoryState struct {
	Cursor  int      `json:"cursor"`
	Len     int      `json:"len"`
	CanUndo bool     `json:"canUndo"`
	CanRedo bool     `json:"canRedo"`
	Labels  []string `json:"labels"`
}

// Session is one editor instance: it exclusively owns a scene, the current
// selection, the tool settings and the undo history.
//
// Low-level setters (CreateElement, UpdateElement, RemoveElement,
// DuplicateElement) never touch history. High-level actions commit exactly
// one snapshot each, and CommitHistory lets callers choose the boundary for
// anything else.
type Session struct {
	mu        sync.Mutex
	scene     *domain.Scene
	sel       Selection
	settings  ToolSettings
	hist      *history.Manager
	layout    *LayoutEngine
	images    ImageInvalidator
	listeners []func()

	version uint64
	saved   uint64
}

// NewSession starts editing a copy of scene (or an empty scene when nil).
func NewSession(scene *domain.Scene) *Session {
	if scene == nil {
		scene = domain.NewScene()
	}
	sc := scene.Clone()
	return &Session{
		scene:    sc,
		settings: DefaultToolSettings(),
		hist:     history.New(sc.Elements),
		layout:   NewLayoutEngine(),
	}
}

// AttachHistory persists history under key. If the store already holds
// history for key, the live elements are restored from its cursor.
func (s *Session) AttachHistory(store history.Store, key string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 {
		s.hist.SetLimit(limit)
	}
	if err := s.hist.Attach(store, key); err != nil {
		return fmt.Errorf("attach history: %w", err)
	}
	s.scene.Elements = s.hist.Current()
	s.pruneSelection()
	return nil
}

// SetImageCache registers the cache to invalidate when elements are deleted.
func (s *Session) SetImageCache(c ImageInvalidator) {
	s.mu.Lock()
	s.images = c
	s.mu.Unlock()
}

// OnChange registers fn to run after every state change, outside the lock.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	ls := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// Scene returns a deep copy of the live scene.
func (s *Session) Scene() *domain.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Clone()
}

// Element returns a copy of the element with id.
func (s *Session) Element(id string) (domain.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el := s.scene.Get(id); el != nil {
		return el.Clone(), true
	}
	return domain.Element{}, false
}

func (s *Session) Settings() ToolSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) SetSettings(ts ToolSettings) {
	s.mu.Lock()
	s.settings = ts
	s.mu.Unlock()
}

// SetCanvas changes canvas size and background. Non-positive sizes and sizes
// beyond the canvas bounds are ignored.
func (s *Session) SetCanvas(size domain.Size, background string) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if size.Width > 0 && size.Height > 0 && size.Fits() {
		s.scene.CanvasSize = size
	}
	if background != "" {
		s.scene.Background = background
	}
	s.version++
}

// ── Scene model (no history) ───────────────────────────────

// CreateElement adds a new element of type t on top of the scene. A nil hint
// lets the layout engine pick a free spot.
func (s *Session) CreateElement(t domain.ElementType, hint *domain.Point) (domain.Element, error) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(t, hint)
}

func (s *Session) createLocked(t domain.ElementType, hint *domain.Point) (domain.Element, error) {
	var x, y float64
	if hint != nil {
		x, y = hint.X, hint.Y
	} else {
		w, h := DefaultSize(t, s.settings.Shape.ShapeType)
		x, y = s.layout.NextPosition(s.scene.Elements, s.scene.CanvasSize, w, h)
	}
	el, err := NewElement(t, x, y, s.settings)
	if err != nil {
		return domain.Element{}, fmt.Errorf("create %q element: %w", t, err)
	}
	el.ZIndex = s.scene.MaxZIndex() + 1
	s.scene.Elements = append(s.scene.Elements, el)
	s.version++
	return el.Clone(), nil
}

// UpdateElement merges p into the element with id. Missing ids are a no-op.
func (s *Session) UpdateElement(id string, p Patch) bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, p)
}

func (s *Session) updateLocked(id string, p Patch) bool {
	el := s.scene.Get(id)
	if el == nil {
		return false
	}
	p.Apply(el)
	s.version++
	return true
}

// UpdatePrimary applies p to the primary selected element.
func (s *Session) UpdatePrimary(p Patch) bool {
	s.mu.Lock()
	id := s.sel.Primary()
	s.mu.Unlock()
	if id == "" {
		return false
	}
	return s.UpdateElement(id, p)
}

// RemoveElement deletes the element with id and drops it from the selection.
func (s *Session) RemoveElement(id string) bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Session) removeLocked(id string) bool {
	i := s.scene.Find(id)
	if i < 0 {
		return false
	}
	s.scene.Elements = append(s.scene.Elements[:i], s.scene.Elements[i+1:]...)
	s.sel.Remove(id)
	if s.images != nil {
		s.images.Invalidate(id)
	}
	s.version++
	return true
}

// DuplicateElement clones the element with id, offset so it is visibly
// distinct, and places it on top.
func (s *Session) DuplicateElement(id string) (domain.Element, bool) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duplicateLocked(id)
}

func (s *Session) duplicateLocked(id string) (domain.Element, bool) {
	src := s.scene.Get(id)
	if src == nil {
		return domain.Element{}, false
	}
	dup := src.Clone()
	dup.ID = newID()
	dup.X += DuplicateOffset
	dup.Y += DuplicateOffset
	dup.ZIndex = s.scene.MaxZIndex() + 1
	s.scene.Elements = append(s.scene.Elements, dup)
	s.version++
	return dup.Clone(), true
}

// ── Selection ──────────────────────────────────────────────

func (s *Session) Select(id string, additive bool) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.scene.Find(id) < 0 {
		return
	}
	s.sel.Select(id, additive)
}

// SelectAt hit-tests p and selects the result. A miss without additive
// clears the selection. It returns the hit id or "".
func (s *Session) SelectAt(p domain.Point, additive bool) string {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	id := HitTest(s.scene.Elements, p)
	if id == "" && additive {
		return ""
	}
	s.sel.Select(id, additive)
	return id
}

// SetSelection replaces the selection; unknown ids are dropped.
func (s *Session) SetSelection(ids []string) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	var known []string
	for _, id := range ids {
		if s.scene.Find(id) >= 0 {
			known = append(known, id)
		}
	}
	s.sel.Set(known)
}

func (s *Session) SelectAll() {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.scene.Elements))
	for _, el := range domain.PaintOrder(s.scene.Elements) {
		ids = append(ids, el.ID)
	}
	s.sel.Set(ids)
}

func (s *Session) ClearSelection() {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IDs()
}

func (s *Session) SelectionSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Lookup()
}

func (s *Session) Primary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Primary()
}

// HitTest returns the topmost element id at p, or "".
func (s *Session) HitTest(p domain.Point) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HitTest(s.scene.Elements, p)
}

func (s *Session) selectedLocked() []domain.Element {
	var out []domain.Element
	for _, id := range s.sel.IDs() {
		if el := s.scene.Get(id); el != nil {
			out = append(out, el.Clone())
		}
	}
	return out
}

func (s *Session) pruneSelection() {
	for _, id := range s.sel.IDs() {
		if s.scene.Find(id) < 0 {
			s.sel.Remove(id)
		}
	}
}

// ── Actions (one history commit each) ──────────────────────

// AddElement creates an element, selects it and commits.
func (s *Session) AddElement(t domain.ElementType, hint *domain.Point) (domain.Element, error) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.createLocked(t, hint)
	if err != nil {
		return el, err
	}
	s.sel.Select(el.ID, false)
	s.commitLocked("add " + string(t))
	return el, nil
}

// Delete removes the given elements with a single commit.
func (s *Session) Delete(ids ...string) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if s.removeLocked(id) {
			n++
		}
	}
	if n > 0 {
		s.commitLocked("delete")
	}
	return n
}

// DeleteSelected removes every selected element.
func (s *Session) DeleteSelected() int {
	return s.Delete(s.Selection()...)
}

// DuplicateSelected duplicates each selected element, selects the copies and commits.
func (s *Session) DuplicateSelected() []domain.Element {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	var dups []domain.Element
	var ids []string
	for _, id := range s.sel.IDs() {
		if dup, ok := s.duplicateLocked(id); ok {
			dups = append(dups, dup)
			ids = append(ids, dup.ID)
		}
	}
	if len(dups) > 0 {
		s.sel.Set(ids)
		s.commitLocked("duplicate")
	}
	return dups
}

// Apply runs a batch of updates atomically with one commit labelled label.
// It returns how many elements were changed.
func (s *Session) Apply(label string, updates []Update) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(label, updates)
}

func (s *Session) applyLocked(label string, updates []Update) int {
	n := 0
	for _, u := range updates {
		if s.updateLocked(u.ID, u.Patch) {
			n++
		}
	}
	if n > 0 {
		s.commitLocked(label)
	}
	return n
}

func (s *Session) AlignSelection(mode AlignMode) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked("align "+string(mode), Align(s.selectedLocked(), mode))
}

func (s *Session) DistributeSelection(axis Axis) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked("distribute "+string(axis), Distribute(s.selectedLocked(), axis))
}

func (s *Session) AlignSelectionToCanvas(mode AlignMode) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked("align to canvas "+string(mode), AlignToCanvas(s.selectedLocked(), s.scene.CanvasSize, mode))
}

func (s *Session) TransformSelection(op TransformOp) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(string(op), Transform(s.selectedLocked(), op))
}

// LayerPrimary reorders the primary selected element.
func (s *Session) LayerPrimary(op LayerOp) int {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.scene.Get(s.sel.Primary())
	if target == nil {
		return 0
	}
	return s.applyLocked("layer "+string(op), Layer(s.scene.Elements, *target, op))
}

// InsertFromLibrary adds a copy of el (new id, on top) picked from an asset
// library. A non-nil hint overrides its position.
func (s *Session) InsertFromLibrary(el domain.Element, hint *domain.Point) (domain.Element, error) {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	ins := el.Clone()
	ins.ID = newID()
	if err := ins.Validate(); err != nil {
		return domain.Element{}, fmt.Errorf("insert from library: %w", err)
	}
	if hint != nil {
		ins.X, ins.Y = hint.X, hint.Y
	} else {
		ins.X, ins.Y = s.layout.NextPosition(s.scene.Elements, s.scene.CanvasSize, ins.Width, ins.Height)
	}
	ins.ZIndex = s.scene.MaxZIndex() + 1
	s.scene.Elements = append(s.scene.Elements, ins)
	s.sel.Select(ins.ID, false)
	s.version++
	s.commitLocked("insert " + string(ins.Type))
	return ins.Clone(), nil
}

// ApplyTemplate replaces the scene's elements and canvas settings with a
// copy of tpl. Element ids are regenerated so templates are never shared.
func (s *Session) ApplyTemplate(tpl *domain.Scene, templateID string) error {
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("apply template: %w", err)
	}
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, el := range s.scene.Elements {
		if s.images != nil {
			s.images.Invalidate(el.ID)
		}
	}
	elements := domain.CloneElements(tpl.Elements)
	for i := range elements {
		elements[i].ID = newID()
	}
	if elements == nil {
		elements = []domain.Element{}
	}
	s.scene.Elements = elements
	if tpl.CanvasSize.Width > 0 && tpl.CanvasSize.Height > 0 {
		s.scene.CanvasSize = tpl.CanvasSize
	}
	if tpl.Background != "" {
		s.scene.Background = tpl.Background
	}
	s.scene.TemplateID = templateID
	s.sel.Clear()
	s.version++
	s.commitLocked("apply template")
	return nil
}

// ── History ────────────────────────────────────────────────

// CommitHistory snapshots the live elements as one undo step.
func (s *Session) CommitHistory(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(label)
}

func (s *Session) commitLocked(label string) {
	s.hist.Commit(label, s.scene.Elements)
}

// Undo restores the previous snapshot. It reports false at the oldest entry.
func (s *Session) Undo() bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	elements, ok := s.hist.Undo()
	if ok {
		s.restoreLocked(elements)
	}
	return ok
}

// Redo re-applies the next snapshot. It reports false at the newest entry.
func (s *Session) Redo() bool {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	elements, ok := s.hist.Redo()
	if ok {
		s.restoreLocked(elements)
	}
	return ok
}

func (s *Session) restoreLocked(elements []domain.Element) {
	if s.images != nil {
		keep := make(map[string]bool, len(elements))
		for _, el := range elements {
			keep[el.ID] = true
		}
		for _, el := range s.scene.Elements {
			if !keep[el.ID] {
				s.images.Invalidate(el.ID)
			}
		}
	}
	s.scene.Elements = elements
	s.pruneSelection()
	s.version++
}

func (s *Session) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryState{
		Cursor:  s.hist.Cursor(),
		Len:     s.hist.Len(),
		CanUndo: s.hist.CanUndo(),
		CanRedo: s.hist.CanRedo(),
		Labels:  s.hist.Labels(),
	}
}

// ── Persistence bookkeeping ────────────────────────────────

// Snapshot returns a copy of the scene with the version it was taken at.
func (s *Session) Snapshot() (*domain.Scene, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Clone(), s.version
}

// Dirty reports whether the scene changed since the last saved version.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

// MarkSaved records that the snapshot at version v has been persisted.
func (s *Session) MarkSaved(v uint64) {
	s.mu.Lock()
	if v > s.saved {
		s.saved = v
	}
	s.mu.Unlock()
}

// Close releases the image cache, if it can be closed. Loads still in flight
// are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	c := s.images
	s.images = nil
	s.listeners = nil
	s.mu.Unlock()
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}
