package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"designer/internal/domain"
	"designer/internal/export"
	"designer/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Submissions tests
// ─────────────────────────────────────────────────────────────

func TestSubmissions_RefusesDuplicateKey(t *testing.T) {
	g := service.Submissions{Kind: "upload"}
	key := service.UploadKey("designs", "logo.png")

	release, err := g.Begin(key)
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err = g.Begin(key)
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("duplicate submission: got %v, want ErrBusy", err)
	}
	if !strings.Contains(err.Error(), "upload designs/logo.png") {
		t.Errorf("error should name the submission: %v", err)
	}
	other, err := g.Begin(service.UploadKey("products", "logo.png"))
	if err != nil {
		t.Fatalf("same name in another folder: %v", err)
	}

	if got := strings.Join(g.Active(), ","); got != "designs/logo.png,products/logo.png" {
		t.Errorf("active = %s", got)
	}
	release()
	release()
	other()
	if n := len(g.Active()); n != 0 {
		t.Errorf("active after release = %d", n)
	}
	if _, err := g.Begin(key); err != nil {
		t.Errorf("resubmission after release: %v", err)
	}
}

func TestSubmissions_ExportKeyPerFormat(t *testing.T) {
	var g service.Submissions
	if _, err := g.Begin(service.ExportKey("d1", export.PNG)); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Begin(service.ExportKey("d1", export.SVG)); err != nil {
		t.Errorf("another format of the same design should run: %v", err)
	}
	if _, err := g.Begin(service.ExportKey("d1", export.PNG)); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("same design and format: got %v, want ErrBusy", err)
	}
}

func TestSubmissions_Wait(t *testing.T) {
	g := service.Submissions{Kind: "export"}
	release, _ := g.Begin("d1.png")

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if left := g.Wait(ctx); len(left) != 0 {
		t.Errorf("Wait returned %v after release", left)
	}

	g.Begin("d2.jpeg")
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if left := g.Wait(ctx); len(left) != 1 || left[0] != "d2.jpeg" {
		t.Errorf("abandoned = %v, want d2.jpeg", left)
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}

func TestMockEmitter_Named(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "notify:error", "a")
	m.Emit(ctx, "design:saved", "id")
	m.Emit(ctx, "notify:error", "b")

	got := m.Named("notify:error")
	if len(got) != 2 || got[1].Data != "b" {
		t.Errorf("expected two notify:error events, got %+v", got)
	}
}

func TestMockEmitter_LastEvent(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "a", "first")
	m.Emit(ctx, "b", "second")

	if m.Events[len(m.Events)-1].Event != "b" {
		t.Errorf("expected last event 'b', got %q", m.Events[len(m.Events)-1].Event)
	}
}
