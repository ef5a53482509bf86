package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"designer/internal/assets"
	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/render"
	"designer/internal/service"
	"designer/internal/storage"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

type testEnv struct {
	srv      *Server
	db       *storage.DB
	designs  *service.DesignService
	sessions *service.SessionService
	emitter  *service.MockEmitter
	exports  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "designer.db"), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	loader := render.NewLoader(dir)
	designStore := storage.NewDesignStore(db)
	designs := service.NewDesignService(designStore, emitter)
	sessions := service.NewSessionService(designs, storage.NewHistoryStore(db), loader, 40, emitter)
	t.Cleanup(func() { sessions.Stop(context.Background()) })

	exportDir := filepath.Join(dir, "exports")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := New(ctx, Deps{
		Emitter:   emitter,
		Designs:   designs,
		Sessions:  sessions,
		Exports:   service.NewExportService(designStore, export.New(loader), exportDir, emitter),
		Templates: &assets.TemplateLibrary{Store: designStore},
		Images:    &assets.ImageLibrary{Store: storage.NewUploadStore(db)},
	})
	srv.approval.SetTimeout(5 * time.Second)
	return &testEnv{srv: srv, db: db, designs: designs, sessions: sessions, emitter: emitter, exports: exportDir}
}

func call(t *testing.T, h toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := callErr(h, args)
	if err != nil {
		t.Fatalf("tool call: %v", err)
	}
	return res
}

func callErr(h toolHandler, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return h(context.Background(), req)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("no text content in result")
	return ""
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return v
}

// newDesign creates and activates an empty design.
func (e *testEnv) newDesign(t *testing.T) string {
	t.Helper()
	res := call(t, e.srv.handleCreateDesign, map[string]any{"name": "Poster", "width": 400.0, "height": 300.0})
	return decode[map[string]any](t, res)["id"].(string)
}

func (e *testEnv) addShape(t *testing.T, x, y float64) elementSummary {
	t.Helper()
	res := call(t, e.srv.handleAddElement, map[string]any{"type": "shape", "x": x, "y": y})
	return decode[elementSummary](t, res)
}

// approveNext approves the next approval request the server emits.
func (e *testEnv) approveNext(t *testing.T, approve bool) {
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if evs := e.emitter.Named("mcp:approval-required"); len(evs) > 0 {
				action := evs[len(evs)-1].Data.(PendingAction)
				if approve {
					e.srv.Approve(action.ID)
				} else {
					e.srv.Reject(action.ID)
				}
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

// ─────────────────────────────────────────────────────────────
// Design tools
// ─────────────────────────────────────────────────────────────

func TestCreateDesign_SetsActive(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)

	if got := e.srv.active(); got != id {
		t.Fatalf("active design = %q, want %q", got, id)
	}
	if _, err := e.sessions.Get(id); err != nil {
		t.Errorf("design should be open: %v", err)
	}
	d, err := e.designs.GetDesign(id)
	if err != nil {
		t.Fatalf("get design: %v", err)
	}
	if d.Scene.CanvasSize.Width != 400 || d.Scene.CanvasSize.Height != 300 {
		t.Errorf("canvas = %+v, want 400x300", d.Scene.CanvasSize)
	}
}

func TestResolveSession_NoActiveDesign(t *testing.T) {
	e := newTestEnv(t)
	if _, err := callErr(e.srv.handleListElements, map[string]any{}); err == nil {
		t.Fatal("expected error without designId or active design")
	}
	if _, err := callErr(e.srv.handleOpenDesign, map[string]any{"designId": "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("open missing design: got %v, want ErrNotFound", err)
	}
}

func TestSaveDesign_PersistsLiveScene(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	e.addShape(t, 10, 10)

	call(t, e.srv.handleSaveDesign, map[string]any{})

	d, err := e.designs.GetDesign(id)
	if err != nil {
		t.Fatalf("get design: %v", err)
	}
	if len(d.Scene.Elements) != 1 {
		t.Errorf("stored elements = %d, want 1", len(d.Scene.Elements))
	}
}

func TestExportDesign_WritesFile(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)
	e.addShape(t, 0, 0)

	res := call(t, e.srv.handleExportDesign, map[string]any{"format": "svg"})
	path := strings.TrimPrefix(resultText(t, res), "Exported ")
	if filepath.Dir(path) != e.exports {
		t.Errorf("exported to %s, want a file in %s", path, e.exports)
	}
	if filepath.Base(path) != "Poster.svg" {
		t.Errorf("file name = %s, want Poster.svg", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("export is not an SVG document")
	}

	if _, err := callErr(e.srv.handleExportDesign, map[string]any{"format": "gif"}); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("gif export: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestPreviewDesign_ReturnsImage(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)

	res := call(t, e.srv.handlePreviewDesign, map[string]any{})
	img, ok := res.Content[0].(mcp.ImageContent)
	if !ok {
		t.Fatalf("first content is %T, want ImageContent", res.Content[0])
	}
	if img.MIMEType != "image/png" || img.Data == "" {
		t.Errorf("preview = %s with %d bytes of data", img.MIMEType, len(img.Data))
	}
}

// ─────────────────────────────────────────────────────────────
// Element tools
// ─────────────────────────────────────────────────────────────

func TestAddElement_UndoRedo(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)

	added := e.addShape(t, 40, 50)
	if added.X != 40 || added.Y != 50 || !added.Selected {
		t.Errorf("added = %+v, want at (40, 50) and selected", added)
	}

	list := decode[[]elementSummary](t, call(t, e.srv.handleListElements, map[string]any{}))
	if len(list) != 1 || list[0].ID != added.ID {
		t.Fatalf("list = %+v, want the added element", list)
	}

	call(t, e.srv.handleUndo, map[string]any{})
	list = decode[[]elementSummary](t, call(t, e.srv.handleListElements, map[string]any{}))
	if len(list) != 0 {
		t.Errorf("after undo: %d elements, want 0", len(list))
	}

	call(t, e.srv.handleRedo, map[string]any{})
	list = decode[[]elementSummary](t, call(t, e.srv.handleListElements, map[string]any{}))
	if len(list) != 1 {
		t.Errorf("after redo: %d elements, want 1", len(list))
	}

	if got := resultText(t, call(t, e.srv.handleRedo, map[string]any{})); got != "Nothing to redo" {
		t.Errorf("second redo = %q", got)
	}
}

func TestAddElement_TextWithPatch(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)

	res := call(t, e.srv.handleAddElement, map[string]any{
		"type":      "text",
		"text":      "Summer Sale",
		"patchJSON": `{"fontSize": 48, "color": "#ff0000", "width": 320}`,
	})
	added := decode[elementSummary](t, res)
	if added.Label != "Summer Sale" || added.Width != 320 {
		t.Errorf("added = %+v", added)
	}

	open, _ := e.sessions.Get(id)
	el, _ := open.Session.Element(added.ID)
	if el.Text.FontSize != 48 || el.Text.Color != "#ff0000" {
		t.Errorf("text props = %+v", el.Text)
	}
	if n := open.Session.History().Len; n != 2 {
		t.Errorf("history length = %d, want 2 (initial + one insert)", n)
	}
}

func TestAddElement_Rejects(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown type", map[string]any{"type": "video"}},
		{"unknown shape", map[string]any{"type": "shape", "shapeType": "blob"}},
		{"bad patch", map[string]any{"type": "shape", "patchJSON": "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := callErr(e.srv.handleAddElement, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUpdateElement_CommitsOnce(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	added := e.addShape(t, 0, 0)
	open, _ := e.sessions.Get(id)
	before := open.Session.History().Len

	call(t, e.srv.handleUpdateElement, map[string]any{
		"elementId": added.ID,
		"patchJSON": `{"x": 120, "fillColor": "#00ff00"}`,
	})

	el, _ := open.Session.Element(added.ID)
	if el.X != 120 || el.Shape.FillColor != "#00ff00" {
		t.Errorf("element = x %v fill %s", el.X, el.Shape.FillColor)
	}
	if got := open.Session.History().Len; got != before+1 {
		t.Errorf("history length = %d, want %d", got, before+1)
	}

	if _, err := callErr(e.srv.handleUpdateElement, map[string]any{"elementId": "nope", "patchJSON": `{"x": 1}`}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown element: got %v, want ErrNotFound", err)
	}
}

func TestUpdateElements_Batch(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)
	a := e.addShape(t, 0, 0)
	b := e.addShape(t, 200, 0)

	updates := `[{"id":"` + a.ID + `","patch":{"y":80}},{"id":"` + b.ID + `","patch":{"y":80}},{"id":"ghost","patch":{"y":1}}]`
	res := call(t, e.srv.handleUpdateElements, map[string]any{"updates": updates})
	if got := resultText(t, res); got != "Updated 2 of 3 elements" {
		t.Errorf("result = %q", got)
	}
}

func TestDeleteElement_Approval(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	added := e.addShape(t, 0, 0)
	open, _ := e.sessions.Get(id)

	e.approveNext(t, false)
	res := call(t, e.srv.handleDeleteElement, map[string]any{"elementIds": added.ID})
	if got := resultText(t, res); got != "Action rejected by user" {
		t.Errorf("rejected delete = %q", got)
	}
	if _, ok := open.Session.Element(added.ID); !ok {
		t.Fatal("element deleted despite rejection")
	}

	e.emitter.Events = nil
	e.approveNext(t, true)
	res = call(t, e.srv.handleDeleteElement, map[string]any{"elementIds": added.ID})
	if got := resultText(t, res); got != "Deleted 1 elements" {
		t.Errorf("approved delete = %q", got)
	}
	if _, ok := open.Session.Element(added.ID); ok {
		t.Error("element still present after approved delete")
	}
}

func TestDuplicateElement_SelectsCopies(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	added := e.addShape(t, 10, 10)

	dups := decode[[]elementSummary](t, call(t, e.srv.handleDuplicateElement, map[string]any{"elementIds": added.ID}))
	if len(dups) != 1 {
		t.Fatalf("duplicates = %d, want 1", len(dups))
	}
	if dups[0].X != 30 || dups[0].Y != 30 || dups[0].ID == added.ID {
		t.Errorf("duplicate = %+v, want a new id offset by 20", dups[0])
	}
	open, _ := e.sessions.Get(id)
	if got := open.Session.Primary(); got != dups[0].ID {
		t.Errorf("primary = %s, want the copy", got)
	}
}

func TestSelectElements_Modes(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)
	a := e.addShape(t, 0, 0)
	b := e.addShape(t, 200, 0)

	type selection struct {
		Selection []string `json:"selection"`
		Primary   string   `json:"primary"`
	}

	got := decode[selection](t, call(t, e.srv.handleSelectElements, map[string]any{"all": true}))
	if len(got.Selection) != 2 {
		t.Errorf("select all = %v", got.Selection)
	}

	got = decode[selection](t, call(t, e.srv.handleSelectElements, map[string]any{
		"x": 150.0, "y": -10.0, "width": 200.0, "height": 200.0,
	}))
	if len(got.Selection) != 1 || got.Selection[0] != b.ID {
		t.Errorf("region select = %v, want [%s]", got.Selection, b.ID)
	}

	got = decode[selection](t, call(t, e.srv.handleSelectElements, map[string]any{"elementIds": b.ID + "," + a.ID}))
	if got.Primary != a.ID {
		t.Errorf("primary = %s, want last id %s", got.Primary, a.ID)
	}

	got = decode[selection](t, call(t, e.srv.handleSelectElements, map[string]any{}))
	if len(got.Selection) != 0 {
		t.Errorf("clear = %v", got.Selection)
	}
}

func TestHitTest(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	under := e.addShape(t, 0, 0)
	over := e.addShape(t, 50, 50)

	hit := decode[elementSummary](t, call(t, e.srv.handleHitTest, map[string]any{"x": 75.0, "y": 75.0}))
	if hit.ID != over.ID {
		t.Errorf("hit %s, want topmost %s", hit.ID, over.ID)
	}

	call(t, e.srv.handleHitTest, map[string]any{"x": 10.0, "y": 10.0, "select": true})
	open, _ := e.sessions.Get(id)
	if got := open.Session.Primary(); got != under.ID {
		t.Errorf("primary = %s, want %s", got, under.ID)
	}

	res := call(t, e.srv.handleHitTest, map[string]any{"x": 390.0, "y": 290.0})
	if !strings.HasPrefix(resultText(t, res), "No element") {
		t.Errorf("miss = %q", resultText(t, res))
	}
}

// ─────────────────────────────────────────────────────────────
// Arrange tools
// ─────────────────────────────────────────────────────────────

func TestAlignElements_Left(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	a := e.addShape(t, 30, 0)
	b := e.addShape(t, 120, 150)

	call(t, e.srv.handleAlignElements, map[string]any{"mode": "left", "elementIds": a.ID + "," + b.ID})

	open, _ := e.sessions.Get(id)
	ea, _ := open.Session.Element(a.ID)
	eb, _ := open.Session.Element(b.ID)
	if ea.X != 30 || eb.X != 30 {
		t.Errorf("x = %v, %v, want both 30", ea.X, eb.X)
	}

	res := call(t, e.srv.handleAlignElements, map[string]any{"mode": "left"})
	if got := resultText(t, res); got != "align left: nothing changed" {
		t.Errorf("second align = %q", got)
	}

	if _, err := callErr(e.srv.handleAlignElements, map[string]any{"mode": "center-both"}); err == nil {
		t.Error("center-both is canvas only and should be rejected")
	}
}

func TestAlignToCanvas_CenterBoth(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	a := e.addShape(t, 0, 0)

	call(t, e.srv.handleAlignToCanvas, map[string]any{"mode": "center-both", "elementIds": a.ID})

	open, _ := e.sessions.Get(id)
	el, _ := open.Session.Element(a.ID)
	if el.X != 150 || el.Y != 100 {
		t.Errorf("position = (%v, %v), want (150, 100)", el.X, el.Y)
	}
}

func TestDistributeAndTransform(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	a := e.addShape(t, 0, 0)
	b := e.addShape(t, 20, 0)
	c := e.addShape(t, 300, 0)

	call(t, e.srv.handleDistributeElements, map[string]any{"axis": "horizontal", "elementIds": a.ID + "," + b.ID + "," + c.ID})
	open, _ := e.sessions.Get(id)
	eb, _ := open.Session.Element(b.ID)
	if eb.X != 150 {
		t.Errorf("middle x = %v, want 150", eb.X)
	}

	call(t, e.srv.handleTransformElements, map[string]any{"op": "rotate-cw", "elementIds": a.ID})
	ea, _ := open.Session.Element(a.ID)
	if ea.Rotation != 90 {
		t.Errorf("rotation = %v, want 90", ea.Rotation)
	}

	if _, err := callErr(e.srv.handleDistributeElements, map[string]any{"axis": "diagonal"}); err == nil {
		t.Error("expected error for unknown axis")
	}
}

func TestReorderLayer(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)
	a := e.addShape(t, 0, 0)
	b := e.addShape(t, 10, 10)

	moved := decode[elementSummary](t, call(t, e.srv.handleReorderLayer, map[string]any{"op": "front", "elementId": a.ID}))
	if moved.ZIndex <= b.ZIndex {
		t.Errorf("zIndex = %d, want above %d", moved.ZIndex, b.ZIndex)
	}
}

func TestCommitHistory(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)

	state := decode[map[string]any](t, call(t, e.srv.handleCommitHistory, map[string]any{"label": "checkpoint"}))
	labels, _ := state["labels"].([]any)
	if len(labels) == 0 || labels[len(labels)-1] != "checkpoint" {
		t.Errorf("labels = %v, want last checkpoint", labels)
	}
}

// ─────────────────────────────────────────────────────────────
// Library tools
// ─────────────────────────────────────────────────────────────

func TestInsertShape(t *testing.T) {
	e := newTestEnv(t)
	e.newDesign(t)

	added := decode[elementSummary](t, call(t, e.srv.handleInsertShape, map[string]any{"shapeType": "star", "x": 5.0, "y": 6.0}))
	if added.Label != "star" || added.X != 5 || added.Y != 6 {
		t.Errorf("inserted = %+v", added)
	}
	if _, err := callErr(e.srv.handleInsertShape, map[string]any{"shapeType": "blob"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown shape: got %v, want ErrNotFound", err)
	}

	items := decode[[]assets.Item](t, call(t, e.srv.handleListShapes, map[string]any{"category": "arrows"}))
	if len(items) != 4 {
		t.Errorf("arrow shapes = %d, want 4", len(items))
	}
}

func TestApplyTemplate(t *testing.T) {
	e := newTestEnv(t)
	tpl, err := e.designs.CreateDesign(context.Background(), service.CreateDesignInput{
		Name:       "Sale banner",
		IsTemplate: true,
		Elements: []domain.Element{{
			ID:       "t1",
			Type:     domain.ElementShape,
			Geometry: domain.Geometry{Width: 50, Height: 50, ScaleX: 1, ScaleY: 1},
			Shape:    &domain.ShapeProps{ShapeType: domain.ShapeCircle, FillColor: "#ff0000"},
		}},
		CanvasSize: &domain.Size{Width: 1080, Height: 1080},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	items := decode[[]assets.Item](t, call(t, e.srv.handleListTemplates, map[string]any{}))
	if len(items) != 1 || items[0].ID != tpl.ID {
		t.Fatalf("templates = %+v", items)
	}

	id := e.newDesign(t)
	call(t, e.srv.handleApplyTemplate, map[string]any{"templateId": tpl.ID})

	open, _ := e.sessions.Get(id)
	sc := open.Session.Scene()
	if len(sc.Elements) != 1 || sc.Elements[0].ID == "t1" {
		t.Errorf("elements = %+v, want one copy with a fresh id", sc.Elements)
	}
	if sc.CanvasSize.Width != 1080 || sc.TemplateID != tpl.ID {
		t.Errorf("canvas %+v template %q", sc.CanvasSize, sc.TemplateID)
	}
	if n := len(e.emitter.Named("mcp:approval-required")); n != 0 {
		t.Errorf("empty design asked for approval %d times", n)
	}

	// Non-empty now, so a second apply needs approval.
	e.approveNext(t, false)
	res := call(t, e.srv.handleApplyTemplate, map[string]any{"templateId": tpl.ID})
	if got := resultText(t, res); got != "Action rejected by user" {
		t.Errorf("second apply = %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Resources and approvals
// ─────────────────────────────────────────────────────────────

func TestDesignIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"designer://design/abc-123/scene", "abc-123"},
		{"designer://design/abc/elements", ""},
		{"designer://design/a/b/scene", ""},
		{"notes://design/abc/scene", ""},
	}
	for _, tt := range tests {
		if got := designIDFromURI(tt.uri); got != tt.want {
			t.Errorf("designIDFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestDesignSceneResource_LiveScene(t *testing.T) {
	e := newTestEnv(t)
	id := e.newDesign(t)
	e.addShape(t, 0, 0)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "designer://design/" + id + "/scene"
	contents, err := e.srv.handleDesignSceneResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var sc domain.Scene
	if err := json.Unmarshal([]byte(text), &sc); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if len(sc.Elements) != 1 {
		t.Errorf("resource elements = %d, want the unsaved live element", len(sc.Elements))
	}
}

func TestApprovalQueue_Timeout(t *testing.T) {
	emitter := &service.MockEmitter{}
	q := NewApprovalQueue(context.Background(), emitter)
	q.SetTimeout(20 * time.Millisecond)

	ok, err := q.Request("delete_element", "Delete 1 element")
	if ok || !errors.Is(err, ErrRejected) {
		t.Errorf("got (%v, %v), want rejection", ok, err)
	}
	if n := len(emitter.Named("mcp:approval-dismissed")); n != 1 {
		t.Errorf("dismissed events = %d, want 1", n)
	}
}

func TestApprovalQueue_DBMode(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "designer.db"), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store := storage.NewApprovalStore(db)

	q := NewApprovalQueue(context.Background(), &service.MockEmitter{})
	q.SetDB(db.Conn())
	q.SetTimeout(5 * time.Second)
	q.interval = 10 * time.Millisecond

	go func() {
		for i := 0; i < 500; i++ {
			pending, _ := store.ListPending()
			if len(pending) > 0 {
				store.Resolve(pending[0].ID, true)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	ok, err := q.Request("apply_template", "Replace 3 elements", `{"designId":"d1"}`)
	if !ok || err != nil {
		t.Fatalf("got (%v, %v), want approval", ok, err)
	}
	if pending, _ := store.ListPending(); len(pending) != 0 {
		t.Errorf("pending after resolve = %d, want 0", len(pending))
	}
}

func TestApprovalQueue_InProcessPending(t *testing.T) {
	q := NewApprovalQueue(context.Background(), &service.MockEmitter{})
	q.SetTimeout(5 * time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := q.Request("delete_element", "Delete 2 elements", `{"ids":["a","b"]}`)
		done <- err
	}()

	var pending []PendingAction
	for i := 0; i < 500 && len(pending) == 0; i++ {
		pending = q.Pending()
		time.Sleep(5 * time.Millisecond)
	}
	if len(pending) != 1 || pending[0].Tool != "delete_element" {
		t.Fatalf("pending = %+v, want one delete_element", pending)
	}
	if q.Approve("unknown") {
		t.Error("approving an unknown action should report false")
	}
	if !q.Reject(pending[0].ID) {
		t.Fatal("reject of a pending action should report true")
	}
	if err := <-done; !errors.Is(err, ErrRejected) {
		t.Errorf("request err = %v, want ErrRejected", err)
	}
	if n := len(q.Pending()); n != 0 {
		t.Errorf("pending after resolve = %d", n)
	}
}
