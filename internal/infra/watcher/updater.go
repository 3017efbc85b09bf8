package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/docstring"
	"cmdbridge/internal/infra/skills"
	"cmdbridge/internal/infra/telemetry"
	"cmdbridge/internal/infra/wrapper"
)

// AutoUpdater keeps installed skill wrappers in sync with the scripts on
// disk. Events are processed serially so two changes to the same script can
// never race on the registry.
type AutoUpdater struct {
	store     *skills.Store
	installer *wrapper.Installer
	logger    *zap.Logger

	subsMu sync.Mutex
	subs   map[chan domain.UpdateEvent]struct{}
}

func NewAutoUpdater(store *skills.Store, installer *wrapper.Installer, logger *zap.Logger) *AutoUpdater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoUpdater{
		store:     store,
		installer: installer,
		logger:    logger.Named("updater"),
		subs:      make(map[chan domain.UpdateEvent]struct{}),
	}
}

// Subscribe registers a listener for update outcomes. The channel is dropped
// when ctx ends; slow listeners miss events rather than stalling updates.
func (u *AutoUpdater) Subscribe(ctx context.Context) <-chan domain.UpdateEvent {
	ch := make(chan domain.UpdateEvent, 16)
	u.subsMu.Lock()
	u.subs[ch] = struct{}{}
	u.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		u.subsMu.Lock()
		delete(u.subs, ch)
		u.subsMu.Unlock()
	}()
	return ch
}

// Run consumes watch events until the channel closes or ctx is cancelled.
func (u *AutoUpdater) Run(ctx context.Context, events <-chan domain.WatchEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			u.Handle(event)
		}
	}
}

// Handle applies one watch event and broadcasts its outcome. Every event
// yields exactly one update event, error outcomes included.
func (u *AutoUpdater) Handle(event domain.WatchEvent) domain.UpdateEvent {
	var out domain.UpdateEvent
	switch event.Type {
	case domain.WatchAdd, domain.WatchChange:
		out = u.installScript(event)
	case domain.WatchUnlink:
		out = u.removeScript(event)
	default:
		out = u.errorEvent(event, fmt.Errorf("unknown watch event type %q", event.Type))
	}
	u.broadcast(out)
	return out
}

// SyncAll reconciles every installed skill wrapper with the scripts tree:
// scripts gain or refresh wrappers, wrappers without scripts are removed.
func (u *AutoUpdater) SyncAll() ([]domain.UpdateEvent, error) {
	if err := u.store.LoadAll(); err != nil {
		return nil, err
	}

	desired := make(map[string]struct{})
	var results []domain.UpdateEvent
	for _, skill := range u.store.Skills() {
		for _, meta := range u.store.Scripts(skill) {
			event := domain.WatchEvent{
				Type:   domain.WatchAdd,
				Skill:  skill,
				Script: filepath.Base(meta.Path),
				Path:   meta.Path,
				At:     time.Now(),
			}
			out := u.installScript(event)
			if out.CommandName != "" {
				desired[out.CommandName] = struct{}{}
			}
			u.broadcast(out)
			results = append(results, out)
		}
	}

	installed, err := u.installer.List()
	if err != nil {
		return results, err
	}
	for _, record := range installed {
		if record.Type != domain.WrapperTypeSkill {
			continue
		}
		if _, ok := desired[record.CommandName]; ok {
			continue
		}
		out := domain.UpdateEvent{
			ID:          uuid.NewString(),
			Type:        domain.UpdateRemoved,
			Skill:       record.SourceName,
			Script:      record.ToolName,
			CommandName: record.CommandName,
			At:          time.Now(),
		}
		if err := u.installer.Remove(record.CommandName); err != nil {
			out.Type = domain.UpdateError
			out.Err = err.Error()
		}
		u.broadcast(out)
		results = append(results, out)
	}

	u.logger.Info("skill wrappers synced",
		telemetry.EventField(telemetry.EventSyncComplete),
		zap.Int("wrappers", len(desired)),
	)
	return results, nil
}

// installScript re-extracts metadata from the changed script and installs a
// fresh wrapper. A generation failure leaves any existing wrapper untouched.
func (u *AutoUpdater) installScript(event domain.WatchEvent) domain.UpdateEvent {
	meta, err := docstring.Extract(event.Path)
	if err != nil {
		return u.errorEvent(event, err)
	}
	w, err := wrapper.GenerateSkill(event.Skill, meta)
	if err != nil {
		return u.errorEvent(event, err)
	}

	typ := domain.UpdateInstalled
	if _, err := u.installer.Get(w.CommandName); err == nil {
		typ = domain.UpdateUpdated
	}
	if _, err := u.installer.Install(w); err != nil {
		return u.errorEvent(event, err)
	}
	u.store.Refresh(event.Skill)

	return domain.UpdateEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		Skill:       event.Skill,
		Script:      event.Script,
		CommandName: w.CommandName,
		At:          time.Now(),
	}
}

// removeScript uninstalls the wrapper for a deleted script. The docstring is
// gone with the file, so the tool name is taken from the filename stem.
func (u *AutoUpdater) removeScript(event domain.WatchEvent) domain.UpdateEvent {
	stem := strings.TrimSuffix(event.Script, filepath.Ext(event.Script))
	name := wrapper.CommandName(domain.WrapperTypeSkill, event.Skill, stem)

	u.store.Refresh(event.Skill)
	if err := u.installer.Remove(name); err != nil {
		return u.errorEvent(event, err)
	}
	return domain.UpdateEvent{
		ID:          uuid.NewString(),
		Type:        domain.UpdateRemoved,
		Skill:       event.Skill,
		Script:      event.Script,
		CommandName: name,
		At:          time.Now(),
	}
}

func (u *AutoUpdater) errorEvent(event domain.WatchEvent, err error) domain.UpdateEvent {
	u.logger.Warn("wrapper update failed",
		telemetry.SkillField(event.Skill),
		telemetry.ScriptField(event.Script),
		zap.Error(err),
	)
	return domain.UpdateEvent{
		ID:     uuid.NewString(),
		Type:   domain.UpdateError,
		Skill:  event.Skill,
		Script: event.Script,
		Err:    err.Error(),
		At:     time.Now(),
	}
}

func (u *AutoUpdater) broadcast(event domain.UpdateEvent) {
	u.subsMu.Lock()
	defer u.subsMu.Unlock()
	for ch := range u.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
