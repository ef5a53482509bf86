package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"designer/internal/domain"
)

// reloadDelay debounces bursts of writes to the same template file.
const reloadDelay = 300 * time.Millisecond

// templateFile is the on-disk shape of a template: a design document with
// the scene fields inlined, as accepted by POST /api/designs.
type templateFile struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	ThumbnailURL     string           `json:"thumbnailUrl"`
	Elements         []domain.Element `json:"elements"`
	CanvasSize       *domain.Size     `json:"canvasSize"`
	CanvasBackground string           `json:"canvasBackground"`
}

// DirTemplates serves *.json template files from a directory and reloads
// them when they change on disk.
type DirTemplates struct {
	dir string

	mu       sync.RWMutex
	items    map[string]Item // by file path
	onChange []func()

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDirTemplates loads every template in dir. Call Watch to follow changes.
func NewDirTemplates(dir string) (*DirTemplates, error) {
	d := &DirTemplates{dir: dir, items: map[string]Item{}}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		d.reload(filepath.Join(dir, e.Name()))
	}
	log.Printf("[ASSETS] loaded %d template(s) from %s", d.Len(), dir)
	return d, nil
}

func isTemplateFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json") && !strings.HasPrefix(name, ".")
}

func (d *DirTemplates) Kind() Kind { return KindTemplate }

func (d *DirTemplates) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// OnChange registers fn to run after the set of templates changes.
func (d *DirTemplates) OnChange(fn func()) {
	d.mu.Lock()
	d.onChange = append(d.onChange, fn)
	d.mu.Unlock()
}

func (d *DirTemplates) List(_ context.Context, q Query) ([]Item, error) {
	d.mu.RLock()
	items := make([]Item, 0, len(d.items))
	for _, it := range d.items {
		if q.matches(it) {
			items = append(items, it)
		}
	}
	d.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sortItems(items, q.Sort)
	return items, nil
}

// reload reads path into the library, or drops it when it is gone or invalid.
func (d *DirTemplates) reload(path string) {
	it, err := readTemplate(path)
	d.mu.Lock()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ASSETS] skip template %s: %v", filepath.Base(path), err)
		}
		delete(d.items, path)
	} else {
		d.items[path] = it
	}
	d.mu.Unlock()
}

func readTemplate(path string) (Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, err
	}
	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return Item{}, fmt.Errorf("parse template: %w", err)
	}
	sc := domain.NewScene()
	if tf.Elements != nil {
		sc.Elements = tf.Elements
	}
	if tf.CanvasSize != nil && tf.CanvasSize.Width > 0 && tf.CanvasSize.Height > 0 {
		sc.CanvasSize = *tf.CanvasSize
	}
	if tf.CanvasBackground != "" {
		sc.Background = tf.CanvasBackground
	}
	if err := sc.Validate(); err != nil {
		return Item{}, err
	}
	id := tf.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	name := tf.Name
	if name == "" {
		name = id
	}
	sc.TemplateID = id
	return Item{
		ID:        id,
		Kind:      KindTemplate,
		Name:      name,
		Category:  tf.Category,
		Thumbnail: tf.ThumbnailURL,
		scene:     sc,
	}, nil
}

// ── Watcher (fsnotify) ────────────────────────────────────

// Watch reloads templates when files in the directory are written, created,
// renamed or removed, until ctx is cancelled or Close is called.
func (d *DirTemplates) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	d.watcher = watcher
	d.cancel = cancel
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		timers := make(map[string]*time.Timer)
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isTemplateFile(filepath.Base(event.Name)) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				path := event.Name
				if t, exists := timers[path]; exists {
					t.Stop()
				}
				timers[path] = time.AfterFunc(reloadDelay, func() {
					d.reload(path)
					log.Printf("[ASSETS] template %s changed", filepath.Base(path))
					d.notify()
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[ASSETS] watcher error: %v", err)
			}
		}
	}()
	log.Printf("[ASSETS] watching %s", d.dir)
	return nil
}

func (d *DirTemplates) notify() {
	d.mu.RLock()
	fns := append([]func(){}, d.onChange...)
	d.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Close stops the watcher.
func (d *DirTemplates) Close() error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	err := d.watcher.Close()
	<-d.done
	d.cancel = nil
	return err
}
