package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"designer/internal/domain"
	"designer/internal/export"
)

// ─────────────────────────────────────────────────────────────
// Submissions — uploads and exports in flight
// ─────────────────────────────────────────────────────────────

// UploadKey identifies an upload submission: the target folder plus the
// client's idempotency key, or the filename when none was sent.
func UploadKey(folder, key string) string {
	return folder + "/" + key
}

// ExportKey identifies an export of one design to one format.
func ExportKey(designID string, f export.Format) string {
	return designID + "." + string(f)
}

// Submissions tracks the uploads or exports a service has in flight. A
// second submission under a key that is still running is refused with
// domain.ErrBusy, so a double-clicked upload or export never races the
// first. The zero value is ready to use.
type Submissions struct {
	Kind string // "upload" or "export", used in errors and logs

	mu     sync.Mutex
	active map[string]time.Time
	wg     sync.WaitGroup
}

// Begin registers key as in flight. The returned release must be called
// once the submission finishes; extra calls are ignored.
func (g *Submissions) Begin(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]time.Time)
	}
	if since, ok := g.active[key]; ok {
		return nil, fmt.Errorf("%s %s started %s ago: %w",
			g.Kind, key, time.Since(since).Round(time.Millisecond), domain.ErrBusy)
	}
	g.active[key] = time.Now()
	g.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
			g.wg.Done()
		})
	}, nil
}

// Active returns the keys in flight, sorted.
func (g *Submissions) Active() []string {
	g.mu.Lock()
	keys := make([]string, 0, len(g.active))
	for k := range g.active {
		keys = append(keys, k)
	}
	g.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Wait blocks until every submission is released or ctx is cancelled. On
// cancellation the abandoned keys are logged and returned.
func (g *Submissions) Wait(ctx context.Context) []string {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		keys := g.Active()
		if len(keys) > 0 {
			log.Printf("[%s] stopped waiting with %d in flight: %s",
				strings.ToUpper(g.Kind), len(keys), strings.Join(keys, ", "))
		}
		return keys
	}
}
