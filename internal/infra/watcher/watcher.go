// Package watcher observes the skills tree and turns raw filesystem
// notifications into script-scoped events for the auto-updater.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"cmdbridge/internal/domain"
)

const defaultWriteDebounce = 200 * time.Millisecond

// Watcher converts fsnotify events under the skills root into WatchEvents.
// Only files under <root>/<skill>/scripts/ are reported; directory changes
// adjust the watch set but never surface as events, except that a newly
// discovered scripts directory reports its existing files as adds.
type Watcher struct {
	root   string
	logger *zap.Logger
	events chan domain.WatchEvent

	debounce time.Duration
}

type Options struct {
	Logger *zap.Logger
	// Debounce coalesces event bursts per script. Zero means the default.
	Debounce time.Duration
}

func New(root string, opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultWriteDebounce
	}
	return &Watcher{
		root:     root,
		logger:   logger.Named("watcher"),
		events:   make(chan domain.WatchEvent, 64),
		debounce: debounce,
	}
}

// Events is the outgoing stream. It is closed when Run returns.
func (w *Watcher) Events() <-chan domain.WatchEvent {
	return w.events
}

// pendingWatch holds the coalesced event type for a script path whose
// debounce timer has not fired yet. A create followed by write bursts stays
// one add; writes alone become one change.
type pendingWatch struct {
	typ   domain.WatchEventType
	timer *time.Timer
}

// Run watches until ctx is cancelled. Watches are attached to the root, each
// skill directory, and each scripts directory; fsnotify is not recursive, so
// new directories get watches as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	if err := fsw.Add(w.root); err != nil {
		return err
	}
	w.addExistingWatches(fsw)

	pendings := make(map[string]*pendingWatch)
	fired := make(chan string, 64)
	defer func() {
		for _, p := range pendings {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-fsw.Errors:
			if err != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		case path := <-fired:
			p, ok := pendings[path]
			if !ok {
				continue
			}
			delete(pendings, path)
			w.emitScriptEvent(p.typ, path)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsEvent(ctx, fsw, event, pendings, fired)
		}
	}
}

func (w *Watcher) handleFsEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, pendings map[string]*pendingWatch, fired chan string) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.watchNewDir(fsw, path)
			return
		}
		if w.isScriptPath(path) {
			w.schedule(ctx, path, domain.WatchAdd, pendings, fired)
		}
	case event.Op.Has(fsnotify.Write):
		if !w.isScriptPath(path) {
			return
		}
		w.schedule(ctx, path, domain.WatchChange, pendings, fired)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		pending, wasPending := pendings[path]
		if wasPending {
			pending.timer.Stop()
			delete(pendings, path)
		}
		if !w.isScriptPath(path) {
			return
		}
		// A file created and removed within one debounce window never
		// surfaced, so there is nothing to unlink.
		if wasPending && pending.typ == domain.WatchAdd {
			return
		}
		w.emitScriptEvent(domain.WatchUnlink, path)
	}
}

// schedule starts or extends the debounce window for a path. An already
// pending event keeps its type: editors follow a create with write bursts,
// and those must collapse into the single add.
func (w *Watcher) schedule(ctx context.Context, path string, typ domain.WatchEventType, pendings map[string]*pendingWatch, fired chan string) {
	if p, ok := pendings[path]; ok {
		p.timer.Reset(w.debounce)
		return
	}
	p := &pendingWatch{typ: typ}
	p.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fired <- path:
		case <-ctx.Done():
		}
	})
	pendings[path] = p
}

// watchNewDir attaches a watch to a directory that appeared under the tree.
// A scripts directory may already contain files (e.g. when a whole skill is
// moved in); those are reported as adds.
func (w *Watcher) watchNewDir(fsw *fsnotify.Watcher, dir string) {
	skill, rest, ok := w.splitSkillPath(dir)
	if !ok || skill == "" {
		return
	}
	scriptsDir := rest == domain.ScriptsDirName
	if rest != "" && !scriptsDir {
		return
	}
	if err := fsw.Add(dir); err != nil {
		w.logger.Warn("watch add failed", zap.String("path", dir), zap.Error(err))
		return
	}
	if !scriptsDir {
		// New skill dir; its scripts/ may already exist.
		nested := filepath.Join(dir, domain.ScriptsDirName)
		if info, err := os.Stat(nested); err == nil && info.IsDir() {
			w.watchNewDir(fsw, nested)
		}
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		w.emitScriptEvent(domain.WatchAdd, filepath.Join(dir, entry.Name()))
	}
}

func (w *Watcher) addExistingWatches(fsw *fsnotify.Watcher) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		skillDir := filepath.Join(w.root, entry.Name())
		if err := fsw.Add(skillDir); err != nil {
			w.logger.Warn("watch add failed", zap.String("path", skillDir), zap.Error(err))
			continue
		}
		scriptsDir := filepath.Join(skillDir, domain.ScriptsDirName)
		if info, err := os.Stat(scriptsDir); err == nil && info.IsDir() {
			if err := fsw.Add(scriptsDir); err != nil {
				w.logger.Warn("watch add failed", zap.String("path", scriptsDir), zap.Error(err))
			}
		}
	}
}

func (w *Watcher) emitScriptEvent(typ domain.WatchEventType, path string) {
	skill, rest, ok := w.splitSkillPath(path)
	if !ok {
		return
	}
	parts := strings.Split(rest, string(filepath.Separator))
	if len(parts) != 2 || parts[0] != domain.ScriptsDirName {
		return
	}
	event := domain.WatchEvent{
		Type:   typ,
		Skill:  skill,
		Script: parts[1],
		Path:   path,
		At:     time.Now(),
	}
	select {
	case w.events <- event:
	default:
		w.logger.Warn("watch event dropped",
			zap.String("skill", event.Skill),
			zap.String("script", event.Script),
		)
	}
}

// isScriptPath reports whether the path names a file directly under some
// skill's scripts directory. Hidden files are ignored.
func (w *Watcher) isScriptPath(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	_, rest, ok := w.splitSkillPath(path)
	if !ok {
		return false
	}
	parts := strings.Split(rest, string(filepath.Separator))
	return len(parts) == 2 && parts[0] == domain.ScriptsDirName
}

// splitSkillPath separates a path under the root into the skill name and the
// remainder relative to the skill directory.
func (w *Watcher) splitSkillPath(path string) (skill, rest string, ok bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", false
	}
	parts := strings.SplitN(rel, string(filepath.Separator), 2)
	if len(parts) == 1 {
		return parts[0], "", true
	}
	return parts[0], parts[1], true
}
