// Package skills maintains the in-memory view of the skills tree: one
// directory per skill, each with a scripts/ directory whose files are the
// skill's invocable tools.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/docstring"
)

type Store struct {
	root   string
	logger *zap.Logger

	mu     sync.RWMutex
	skills map[string][]domain.ScriptMetadata
}

func NewStore(root string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		root:   root,
		logger: logger.Named("skills"),
		skills: make(map[string][]domain.ScriptMetadata),
	}
}

func (s *Store) Root() string {
	return s.root
}

// LoadAll rescans the whole skills tree, replacing the in-memory view
// wholesale so callers never observe a half-updated skill.
func (s *Store) LoadAll() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.skills = make(map[string][]domain.ScriptMetadata)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read skills root: %w", err)
	}

	next := make(map[string][]domain.ScriptMetadata)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		scripts := s.scanSkill(entry.Name())
		if len(scripts) > 0 {
			next[entry.Name()] = scripts
		}
	}

	s.mu.Lock()
	s.skills = next
	s.mu.Unlock()
	return nil
}

// Refresh rescans a single skill, replacing only its entry.
func (s *Store) Refresh(skill string) {
	scripts := s.scanSkill(skill)

	s.mu.Lock()
	if len(scripts) == 0 {
		delete(s.skills, skill)
	} else {
		s.skills[skill] = scripts
	}
	s.mu.Unlock()
}

func (s *Store) scanSkill(skill string) []domain.ScriptMetadata {
	dir := filepath.Join(s.root, skill, domain.ScriptsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var scripts []domain.ScriptMetadata
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		meta, err := docstring.Extract(path)
		if err != nil {
			s.logger.Warn("script unreadable",
				zap.String("skill", skill),
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		scripts = append(scripts, meta)
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Path < scripts[j].Path })
	return scripts
}

// Skills returns the known skill names, sorted.
func (s *Store) Skills() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.skills))
	for name := range s.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scripts returns the scripts of one skill.
func (s *Store) Scripts(skill string) []domain.ScriptMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ScriptMetadata(nil), s.skills[skill]...)
}

// FindTool resolves a tool name within a skill by matching the parsed
// metadata name.
func (s *Store) FindTool(skill, tool string) (domain.ScriptMetadata, error) {
	s.mu.RLock()
	scripts, ok := s.skills[skill]
	s.mu.RUnlock()

	if !ok || len(scripts) == 0 {
		return domain.ScriptMetadata{}, &domain.SkillNotFoundError{Skill: skill}
	}
	for _, meta := range scripts {
		if meta.Name == tool {
			return meta, nil
		}
	}
	return domain.ScriptMetadata{}, &domain.SkillToolNotFoundError{Tool: tool, Skill: skill}
}
