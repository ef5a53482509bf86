package editor_test

import (
	"sync"
	"testing"

	"designer/internal/domain"
	"designer/internal/editor"
)

func TestCreateUpdateDuplicate(t *testing.T) {
	s := editor.NewSession(nil)
	el, err := s.CreateElement(domain.ElementText, &domain.Point{X: 50, Y: 50})
	if err != nil {
		t.Fatalf("CreateElement: %v", err)
	}
	if el.X != 50 || el.Y != 50 || el.Text.Text != "Your text" {
		t.Fatalf("unexpected element %+v", el)
	}
	if !s.UpdateElement(el.ID, editor.Patch{Text: editor.S("Hello")}) {
		t.Fatal("UpdateElement reported missing element")
	}
	dup, ok := s.DuplicateElement(el.ID)
	if !ok {
		t.Fatal("DuplicateElement failed")
	}

	sc := s.Scene()
	if len(sc.Elements) != 2 {
		t.Fatalf("len = %d, want 2", len(sc.Elements))
	}
	second := sc.Elements[1]
	if second.ID == el.ID || second.ID != dup.ID {
		t.Errorf("duplicate id %q should be new", second.ID)
	}
	if second.X != el.X+editor.DuplicateOffset {
		t.Errorf("duplicate x = %v, want %v", second.X, el.X+editor.DuplicateOffset)
	}
	if second.Text.Text != "Hello" {
		t.Errorf("duplicate text = %q", second.Text.Text)
	}
	if second.ZIndex <= sc.Elements[0].ZIndex {
		t.Error("duplicate should be on top")
	}
}

func TestUpdateNeverChangesIdentity(t *testing.T) {
	s := editor.NewSession(nil)
	el, _ := s.CreateElement(domain.ElementShape, &domain.Point{})
	text := "ignored"
	s.UpdateElement(el.ID, editor.Patch{Text: &text, Width: editor.F(-5)})
	got, _ := s.Element(el.ID)
	if got.ID != el.ID || got.Type != domain.ElementShape || got.Text != nil {
		t.Errorf("identity changed: %+v", got)
	}
	if got.Width != 0 {
		t.Errorf("negative width should clamp to 0, got %v", got.Width)
	}
	if s.UpdateElement("missing", editor.Patch{X: editor.F(1)}) {
		t.Error("update of missing id should report false")
	}
}

func TestSelectAlignCommitsOnce(t *testing.T) {
	s := editor.NewSession(nil)
	var ids []string
	for _, x := range []float64{10, 50, 200} {
		el, err := s.CreateElement(domain.ElementShape, &domain.Point{X: x, Y: 0})
		if err != nil {
			t.Fatal(err)
		}
		s.UpdateElement(el.ID, editor.Patch{Width: editor.F(20)})
		ids = append(ids, el.ID)
	}
	s.CommitHistory("setup")
	s.SetSelection(ids)
	before := s.History().Len

	if n := s.AlignSelection(editor.AlignLeft); n != 2 {
		t.Errorf("moved %d elements, want 2", n)
	}
	for _, id := range ids {
		el, _ := s.Element(id)
		if el.X != 10 {
			t.Errorf("%s.x = %v, want 10", id, el.X)
		}
	}
	if got := s.History().Len; got != before+1 {
		t.Errorf("history grew by %d, want 1", got-before)
	}

	// Already aligned: nothing moves, nothing is committed.
	s.AlignSelection(editor.AlignLeft)
	if got := s.History().Len; got != before+1 {
		t.Errorf("no-op align committed history")
	}
}

func TestLowLevelSettersDoNotCommit(t *testing.T) {
	s := editor.NewSession(nil)
	el, _ := s.CreateElement(domain.ElementShape, nil)
	s.UpdateElement(el.ID, editor.Patch{X: editor.F(1)})
	s.DuplicateElement(el.ID)
	s.RemoveElement(el.ID)
	if h := s.History(); h.Len != 1 || h.CanUndo {
		t.Errorf("low-level setters touched history: %+v", h)
	}
}

func TestCanvasAndFontBounds(t *testing.T) {
	s := editor.NewSession(nil)
	s.SetCanvas(domain.Size{Width: 1e10, Height: 1e10}, "")
	if got := s.Scene().CanvasSize; got.Width != domain.DefaultCanvasWidth {
		t.Errorf("oversized canvas applied: %+v", got)
	}
	s.SetCanvas(domain.Size{Width: 1080, Height: 1080}, "")
	if got := s.Scene().CanvasSize; got.Width != 1080 {
		t.Errorf("canvas = %+v, want 1080", got)
	}

	el, _ := s.CreateElement(domain.ElementText, nil)
	s.UpdateElement(el.ID, editor.Patch{FontSize: editor.F(4000)})
	got, _ := s.Element(el.ID)
	if got.Text.FontSize != domain.MaxFontSize {
		t.Errorf("font size = %v, want clamped to %v", got.Text.FontSize, domain.MaxFontSize)
	}

	tpl := domain.NewScene()
	tpl.CanvasSize = domain.Size{Width: 60000, Height: 60000}
	if err := s.ApplyTemplate(tpl, "huge"); err == nil {
		t.Error("oversized template applied")
	}
}

func TestUndoRedoThroughSession(t *testing.T) {
	s := editor.NewSession(nil)
	a, _ := s.AddElement(domain.ElementShape, nil)
	s.AddElement(domain.ElementText, nil)

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	if n := len(s.Scene().Elements); n != 1 {
		t.Fatalf("after one undo len = %d, want 1", n)
	}
	s.Undo()
	if n := len(s.Scene().Elements); n != 0 {
		t.Fatalf("after two undos len = %d, want 0", n)
	}
	if s.Undo() {
		t.Error("undo at the oldest entry should be a no-op")
	}
	s.Redo()
	sc := s.Scene()
	if len(sc.Elements) != 1 || sc.Elements[0].ID != a.ID {
		t.Errorf("redo restored %+v", sc.Elements)
	}
}

func TestUndoPrunesSelection(t *testing.T) {
	s := editor.NewSession(nil)
	el, _ := s.AddElement(domain.ElementShape, nil)
	if s.Primary() != el.ID {
		t.Fatalf("new element should be selected")
	}
	s.Undo()
	if len(s.Selection()) != 0 {
		t.Errorf("selection still holds %v after undo removed it", s.Selection())
	}
}

type invalidations struct {
	mu  sync.Mutex
	ids []string
}

func (i *invalidations) Invalidate(id string) {
	i.mu.Lock()
	i.ids = append(i.ids, id)
	i.mu.Unlock()
}

func TestDeleteInvalidatesImages(t *testing.T) {
	s := editor.NewSession(nil)
	inv := &invalidations{}
	s.SetImageCache(inv)
	el, _ := s.AddElement(domain.ElementImage, nil)
	if n := s.DeleteSelected(); n != 1 {
		t.Fatalf("deleted %d", n)
	}
	if len(inv.ids) != 1 || inv.ids[0] != el.ID {
		t.Errorf("invalidated %v, want [%s]", inv.ids, el.ID)
	}
	if len(s.Selection()) != 0 {
		t.Error("deleted element still selected")
	}
}

func TestSelectAtAndAdditive(t *testing.T) {
	s := editor.NewSession(nil)
	a, _ := s.CreateElement(domain.ElementShape, &domain.Point{X: 0, Y: 0})
	b, _ := s.CreateElement(domain.ElementShape, &domain.Point{X: 300, Y: 300})

	if got := s.SelectAt(domain.Point{X: 5, Y: 5}, false); got != a.ID {
		t.Fatalf("SelectAt = %q", got)
	}
	s.SelectAt(domain.Point{X: 305, Y: 305}, true)
	if sel := s.Selection(); len(sel) != 2 || s.Primary() != b.ID {
		t.Errorf("additive select = %v primary %q", sel, s.Primary())
	}
	s.SelectAt(domain.Point{X: 5, Y: 5}, true)
	if sel := s.Selection(); len(sel) != 1 || sel[0] != b.ID {
		t.Errorf("additive toggle = %v", sel)
	}
	s.SelectAt(domain.Point{X: 700, Y: 10}, false)
	if len(s.Selection()) != 0 {
		t.Error("miss should clear the selection")
	}
}

func TestInsertFromLibraryAndTemplate(t *testing.T) {
	s := editor.NewSession(nil)
	item := domain.Element{
		ID: "catalog-star", Type: domain.ElementShape,
		Geometry: domain.Geometry{Width: 80, Height: 80},
		Shape:    &domain.ShapeProps{ShapeType: domain.ShapeStar, FillColor: "#fbbf24"},
	}
	ins, err := s.InsertFromLibrary(item, &domain.Point{X: 5, Y: 6})
	if err != nil {
		t.Fatal(err)
	}
	if ins.ID == item.ID || ins.X != 5 || ins.Y != 6 {
		t.Errorf("inserted %+v", ins)
	}
	if s.Primary() != ins.ID {
		t.Error("inserted element should be selected")
	}

	tpl := domain.NewScene()
	tpl.CanvasSize = domain.Size{Width: 1080, Height: 1080}
	tpl.Elements = []domain.Element{item}
	if err := s.ApplyTemplate(tpl, "tpl-1"); err != nil {
		t.Fatal(err)
	}
	sc := s.Scene()
	if len(sc.Elements) != 1 || sc.Elements[0].ID == item.ID {
		t.Errorf("template elements not copied with new ids: %+v", sc.Elements)
	}
	if sc.CanvasSize.Width != 1080 || sc.TemplateID != "tpl-1" {
		t.Errorf("template canvas not applied: %+v", sc)
	}

	s.Undo()
	if got := s.Scene(); len(got.Elements) != 1 || got.Elements[0].ID != ins.ID {
		t.Errorf("undo after template = %+v", got.Elements)
	}
}

func TestLayerPrimary(t *testing.T) {
	s := editor.NewSession(nil)
	a, _ := s.AddElement(domain.ElementShape, nil)
	s.AddElement(domain.ElementShape, nil)
	s.Select(a.ID, false)
	if n := s.LayerPrimary(editor.LayerFront); n != 1 {
		t.Fatalf("LayerPrimary = %d", n)
	}
	el, _ := s.Element(a.ID)
	if el.ZIndex != 2 {
		t.Errorf("z = %d, want 2", el.ZIndex)
	}
}

func TestDirtyTracking(t *testing.T) {
	s := editor.NewSession(nil)
	if s.Dirty() {
		t.Fatal("new session should be clean")
	}
	s.AddElement(domain.ElementShape, nil)
	_, v := s.Snapshot()
	if !s.Dirty() {
		t.Fatal("session should be dirty after a change")
	}
	s.AddElement(domain.ElementShape, nil)
	s.MarkSaved(v)
	if !s.Dirty() {
		t.Error("change after the snapshot must keep the session dirty")
	}
	_, v = s.Snapshot()
	s.MarkSaved(v)
	if s.Dirty() {
		t.Error("session should be clean after saving the latest snapshot")
	}
}
