package wrapper

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/hashutil"
	"cmdbridge/internal/infra/telemetry"
)

const (
	manifestFileName   = "manifest.db"
	wrappersBucketName = "wrappers"
)

// Installer owns the bin directory and its manifest. One file per installed
// command, named exactly like the command (colons included); the manifest
// maps command names to their registry records.
type Installer struct {
	binDir string
	logger *zap.Logger

	mu     sync.RWMutex
	db     *bolt.DB
	closed bool
}

func OpenInstaller(binDir string, logger *zap.Logger) (*Installer, error) {
	if strings.TrimSpace(binDir) == "" {
		return nil, fmt.Errorf("bin directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure bin dir: %w", err)
	}

	options := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(filepath.Join(binDir, manifestFileName), 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(wrappersBucketName))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure manifest schema: %w", err)
	}

	return &Installer{
		binDir: binDir,
		logger: logger.Named("installer"),
		db:     db,
	}, nil
}

func (i *Installer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.db.Close()
}

func (i *Installer) BinDir() string {
	return i.binDir
}

// Install persists a generated wrapper. Installing the same command name
// again overwrites both file and record: an idempotent upgrade.
func (i *Installer) Install(w domain.GeneratedWrapper) (domain.InstalledTool, error) {
	if w.CommandName == "" {
		return domain.InstalledTool{}, fmt.Errorf("wrapper has no command name")
	}

	target := filepath.Join(i.binDir, w.CommandName)
	record := domain.InstalledTool{
		CommandName: w.CommandName,
		Type:        w.Type,
		SourceName:  w.SourceName,
		ToolName:    w.ToolName,
		Path:        target,
		Digest:      hashutil.ScriptDigest(w.Script),
		InstalledAt: time.Now().UTC(),
	}

	if err := os.WriteFile(target, []byte(w.Script), 0o755); err != nil {
		return domain.InstalledTool{}, fmt.Errorf("write wrapper %s: %w", w.CommandName, err)
	}
	if err := i.putRecord(record); err != nil {
		return domain.InstalledTool{}, err
	}

	i.logger.Debug("wrapper installed",
		telemetry.EventField(telemetry.EventWrapperInstall),
		telemetry.CommandField(w.CommandName),
	)
	return record, nil
}

// Remove deletes the registry record and the wrapper file.
func (i *Installer) Remove(commandName string) error {
	record, err := i.Get(commandName)
	if err != nil {
		return err
	}

	if err := i.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(wrappersBucketName)).Delete([]byte(commandName))
	}); err != nil {
		return fmt.Errorf("delete record %s: %w", commandName, err)
	}
	if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete wrapper %s: %w", commandName, err)
	}

	i.logger.Debug("wrapper removed",
		telemetry.EventField(telemetry.EventWrapperRemove),
		telemetry.CommandField(commandName),
	)
	return nil
}

// Get returns the record for an installed command.
func (i *Installer) Get(commandName string) (domain.InstalledTool, error) {
	var record domain.InstalledTool
	found := false
	err := i.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(wrappersBucketName)).Get([]byte(commandName))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &record)
	})
	if err != nil {
		return domain.InstalledTool{}, err
	}
	if !found {
		return domain.InstalledTool{}, fmt.Errorf("no wrapper installed for %q", commandName)
	}
	return record, nil
}

// List returns every installed record, sorted by command name.
func (i *Installer) List() ([]domain.InstalledTool, error) {
	var records []domain.InstalledTool
	err := i.view(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(wrappersBucketName)).ForEach(func(_, value []byte) error {
			var record domain.InstalledTool
			if err := json.Unmarshal(value, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(a, b int) bool { return records[a].CommandName < records[b].CommandName })
	return records, nil
}

// Search filters installed wrappers by name pattern (glob when the pattern
// carries glob metacharacters, substring otherwise) and by type.
func (i *Installer) Search(pattern string, typ string) ([]domain.InstalledTool, error) {
	records, err := i.List()
	if err != nil {
		return nil, err
	}

	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		typ = "all"
	}
	if typ != "all" && typ != string(domain.WrapperTypeMCP) && typ != string(domain.WrapperTypeSkill) {
		return nil, fmt.Errorf("type must be mcp, skill, or all")
	}

	var out []domain.InstalledTool
	for _, record := range records {
		if typ != "all" && string(record.Type) != typ {
			continue
		}
		if !matchPattern(pattern, record.CommandName) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// CleanupOrphans removes every installed mcp wrapper whose server is absent
// from the active configuration. Skill wrappers are never touched here; the
// watcher owns their lifecycle.
func (i *Installer) CleanupOrphans(activeServers []string) ([]string, error) {
	active := make(map[string]struct{}, len(activeServers))
	for _, name := range activeServers {
		active[name] = struct{}{}
	}

	records, err := i.List()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, record := range records {
		if record.Type != domain.WrapperTypeMCP {
			continue
		}
		if _, ok := active[record.SourceName]; ok {
			continue
		}
		if err := i.Remove(record.CommandName); err != nil {
			return removed, err
		}
		removed = append(removed, record.CommandName)
	}

	if len(removed) > 0 {
		i.logger.Info("orphan wrappers removed", zap.Strings("commands", removed))
	}
	return removed, nil
}

// FormatListing renders search results as the `command:search` output.
func FormatListing(records []domain.InstalledTool) string {
	if len(records) == 0 {
		return "No installed tools found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Installed tools (%d):\n", len(records))
	for _, record := range records {
		fmt.Fprintf(&b, "  %-8s %s\n", record.Type, record.CommandName)
	}
	return b.String()
}

func matchPattern(pattern, name string) bool {
	if strings.TrimSpace(pattern) == "" {
		return true
	}
	if strings.ContainsAny(pattern, "*?[") {
		ok, err := path.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}

func (i *Installer) putRecord(record domain.InstalledTool) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.CommandName, err)
	}
	if err := i.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(wrappersBucketName)).Put([]byte(record.CommandName), raw)
	}); err != nil {
		return fmt.Errorf("write record %s: %w", record.CommandName, err)
	}
	return nil
}

func (i *Installer) view(fn func(*bolt.Tx) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return domain.ErrStoreClosed
	}
	return i.db.View(fn)
}

func (i *Installer) update(fn func(*bolt.Tx) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return domain.ErrStoreClosed
	}
	return i.db.Update(fn)
}
