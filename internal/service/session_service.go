package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"

	"designer/internal/domain"
	"designer/internal/editor"
	"designer/internal/history"
	"designer/internal/render"
)

// DefaultAutosaveSchedule saves dirty sessions every 30 seconds.
const DefaultAutosaveSchedule = "@every 30s"

// OpenSession is an editor session bound to a stored design.
type OpenSession struct {
	DesignID string
	Session  *editor.Session
	Canvas   *editor.Canvas
}

// ─────────────────────────────────────────────────────────────
// Session Service — open editors, persisted history, autosave
// ─────────────────────────────────────────────────────────────

// SessionService keeps one editor session per open design. History is
// persisted under "design:<id>" so undo survives a restart, and a cron
// schedule saves sessions with unsaved changes.
type SessionService struct {
	designs      *DesignService
	history      history.Store
	loader       *render.Loader
	historyLimit int
	emitter      EventEmitter

	mu       sync.Mutex
	sessions map[string]*OpenSession
	cronSch  *cron.Cron
}

// NewSessionService creates a SessionService. hist may be nil, in which case
// history lives in memory only.
func NewSessionService(designs *DesignService, hist history.Store, loader *render.Loader, historyLimit int, emitter EventEmitter) *SessionService {
	return &SessionService{
		designs:      designs,
		history:      hist,
		loader:       loader,
		historyLimit: historyLimit,
		emitter:      emitter,
		sessions:     make(map[string]*OpenSession),
	}
}

func historyKey(designID string) string { return "design:" + designID }

// Open returns the session for design id, loading it on first use.
func (s *SessionService) Open(ctx context.Context, id string) (*OpenSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open, ok := s.sessions[id]; ok {
		return open, nil
	}

	d, err := s.designs.GetDesign(id)
	if err != nil {
		return nil, fmt.Errorf("open design %s: %w", id, err)
	}
	sess := editor.NewSession(&d.Scene)
	if s.history != nil {
		if err := sess.AttachHistory(s.history, historyKey(id), s.historyLimit); err != nil {
			return nil, fmt.Errorf("open design %s: %w", id, err)
		}
	}
	canvas := editor.NewCanvas(sess, s.loader)
	canvas.Start(context.Background())

	open := &OpenSession{DesignID: id, Session: sess, Canvas: canvas}
	s.sessions[id] = open
	log.Printf("[DESIGN] opened %s (%d elements)", id, len(sess.Scene().Elements))
	s.emitter.Emit(ctx, "design:opened", id)
	return open, nil
}

// Get returns an already open session.
func (s *SessionService) Get(id string) (*OpenSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return open, nil
}

// List returns the ids of open designs, sorted.
func (s *SessionService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the current scene of an open session to the design store.
func (s *SessionService) Save(ctx context.Context, id string) error {
	open, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.save(ctx, open)
}

func (s *SessionService) save(ctx context.Context, open *OpenSession) error {
	sc, version := open.Session.Snapshot()
	if err := s.designs.SaveScene(ctx, open.DesignID, sc); err != nil {
		s.emitter.Emit(ctx, "notify:error", map[string]string{
			"op":      "save",
			"message": err.Error(),
		})
		return err
	}
	open.Session.MarkSaved(version)
	return nil
}

// SaveDirty saves every session with unsaved changes and returns how many
// were written.
func (s *SessionService) SaveDirty(ctx context.Context) int {
	s.mu.Lock()
	var dirty []*OpenSession
	for _, open := range s.sessions {
		if open.Session.Dirty() {
			dirty = append(dirty, open)
		}
	}
	s.mu.Unlock()

	saved := 0
	for _, open := range dirty {
		if err := s.save(ctx, open); err != nil {
			log.Printf("[AUTOSAVE] %s failed: %v", open.DesignID, err)
			continue
		}
		saved++
	}
	return saved
}

// Close saves a dirty session and releases it.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	open, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	var err error
	if open.Session.Dirty() {
		err = s.save(ctx, open)
	}
	open.Canvas.Close()
	open.Session.Close()
	s.emitter.Emit(ctx, "design:closed", id)
	return err
}

// Delete removes a design that is not open, together with its history.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(id); err == nil {
		return fmt.Errorf("delete design %s: open in an editor: %w", id, domain.ErrBusy)
	}
	if err := s.designs.DeleteDesign(ctx, id); err != nil {
		return err
	}
	if c, ok := s.history.(interface{ Clear(key string) error }); ok {
		if err := c.Clear(historyKey(id)); err != nil {
			log.Printf("[DESIGN] clear history for %s: %v", id, err)
		}
	}
	return nil
}

// ── Autosave (cron) ────────────────────────────────────────

// StartAutosave schedules SaveDirty with a cron expression such as
// "@every 30s". An empty schedule disables autosave.
func (s *SessionService) StartAutosave(ctx context.Context, schedule string) error {
	s.stopAutosave()
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := s.SaveDirty(ctx); n > 0 {
			log.Printf("[AUTOSAVE] saved %d design(s)", n)
			s.emitter.Emit(ctx, "autosave:completed", n)
		}
	})
	if err != nil {
		return fmt.Errorf("autosave: invalid schedule %q: %w", schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSch = c
	s.mu.Unlock()
	log.Printf("[AUTOSAVE] scheduled %q", schedule)
	return nil
}

// Stop cancels autosave, then saves and closes every open session.
func (s *SessionService) Stop(ctx context.Context) {
	s.stopAutosave()
	for _, id := range s.List() {
		if err := s.Close(ctx, id); err != nil {
			log.Printf("[DESIGN] close %s: %v", id, err)
		}
	}
}

func (s *SessionService) stopAutosave() {
	s.mu.Lock()
	c := s.cronSch
	s.cronSch = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
