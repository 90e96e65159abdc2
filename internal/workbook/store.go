package workbook

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"dealpulse/pkg/contracts/domain"
)

// StoreConfig configures the workbook store.
type StoreConfig struct {
	// Path is the workbook file on disk.
	Path string
	// BackupsDir receives a copy of the current workbook before each save.
	BackupsDir string
}

// Store owns the live dataset. Reads go through Snapshot; writes go through
// Replace or Append which persist the workbook and notify subscribers.
type Store struct {
	mu      sync.RWMutex
	dataset domain.Dataset
	loaded  bool

	path       string
	backupsDir string
	loader     *Loader
	logger     *slog.Logger

	subMu sync.Mutex
	subs  []chan struct{}
}

// NewStore creates a workbook store. Call Load before serving reads.
func NewStore(logger *slog.Logger, loader *Loader, config StoreConfig) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:       config.Path,
		backupsDir: config.BackupsDir,
		loader:     loader,
		logger:     logger.With(slog.String("component", "workbook_store")),
	}
}

// Load reads the workbook from disk into memory.
func (s *Store) Load() error {
	ds, err := s.loader.Load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dataset = *ds
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("workbook loaded",
		slog.String("path", s.path),
		slog.Int("rows", ds.TotalRows()))

	return nil
}

// Loaded reports whether a dataset is in memory.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the dataset safe for concurrent use. Record
// slices are copied; records themselves are treated as immutable values.
func (s *Store) Snapshot() domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.Dataset{
		MA:         append([]domain.DealRecord(nil), s.dataset.MA...),
		Investment: append([]domain.DealRecord(nil), s.dataset.Investment...),
		IPO:        append([]domain.DealRecord(nil), s.dataset.IPO...),
	}
	if s.dataset.Layouts != nil {
		out.Layouts = make(map[domain.DealKind]domain.SheetLayout, len(s.dataset.Layouts))
		for k, v := range s.dataset.Layouts {
			out.Layouts[k] = v
		}
	}
	return out
}

// Replace swaps the dataset wholesale, persists it, and notifies subscribers.
// The in-memory dataset is untouched when the save fails, so readers never
// see rows that were not persisted.
func (s *Store) Replace(ds domain.Dataset) error {
	s.mu.Lock()
	if err := s.saveLocked(ds); err != nil {
		s.mu.Unlock()
		return err
	}
	s.dataset = ds
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("workbook replaced",
		slog.Int("rows", ds.TotalRows()))
	s.notify()
	return nil
}

// Append merges new records into the dataset, dropping rows that already
// exist verbatim, then persists and notifies. Returns the number of records
// actually added. The merge is staged off to the side and committed only
// after a successful save.
func (s *Store) Append(incoming domain.Dataset) (int, error) {
	s.mu.Lock()

	merged := s.dataset
	added := 0
	for _, kind := range domain.DealKinds {
		existing := s.dataset.Records(kind)
		seen := make(map[string]struct{}, len(existing))
		for _, r := range existing {
			seen[recordKey(r)] = struct{}{}
		}

		rows := append([]domain.DealRecord(nil), existing...)
		for _, r := range incoming.Records(kind) {
			key := recordKey(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, r)
			added++
		}
		merged.SetRecords(kind, rows)
	}

	// Adopt layouts from the incoming workbook for sheets we had none for.
	if incoming.Layouts != nil {
		layouts := make(map[domain.DealKind]domain.SheetLayout, len(incoming.Layouts))
		for k, v := range s.dataset.Layouts {
			layouts[k] = v
		}
		for k, v := range incoming.Layouts {
			if _, ok := layouts[k]; !ok {
				layouts[k] = v
			}
		}
		merged.Layouts = layouts
	}

	if err := s.saveLocked(merged); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.dataset = merged
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("workbook appended",
		slog.Int("added", added),
		slog.Int("incoming", incoming.TotalRows()))
	s.notify()
	return added, nil
}

// Subscribe returns a channel that receives a signal after every persisted
// dataset change. The channel has a buffer of one; a slow consumer misses
// intermediate signals, not the fact that something changed.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// saveLocked writes the given dataset to the workbook file. Callers hold the
// write lock and commit the dataset to memory only after this succeeds.
func (s *Store) saveLocked(ds domain.Dataset) error {
	if err := s.backupLocked(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, kind := range domain.DealKinds {
		layout, ok := ds.Layouts[kind]
		if !ok || len(layout.Columns) == 0 {
			layout = DefaultLayout(kind)
		}

		if i == 0 {
			// excelize starts with a default sheet; rename it.
			if err := f.SetSheetName("Sheet1", layout.Sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", layout.Sheet, err)
			}
		} else {
			if _, err := f.NewSheet(layout.Sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", layout.Sheet, err)
			}
		}

		header := make([]interface{}, len(layout.Columns))
		for c, col := range layout.Columns {
			header[c] = col
		}
		if err := f.SetSheetRow(layout.Sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", layout.Sheet, err)
		}

		for rowIdx, record := range ds.Records(kind) {
			row := make([]interface{}, len(layout.Columns))
			for c, col := range layout.Columns {
				row[c] = columnValue(record, col, kind)
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell for %s row %d: %w", layout.Sheet, rowIdx+2, err)
			}
			if err := f.SetSheetRow(layout.Sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", layout.Sheet, err)
			}
		}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create workbook directory: %w", err)
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	return nil
}

// backupLocked copies the current workbook file into the backups directory
// before it is overwritten. No file on disk means nothing to back up.
func (s *Store) backupLocked() error {
	if s.backupsDir == "" {
		return nil
	}

	src, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open workbook for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupsDir, 0755); err != nil {
		return fmt.Errorf("failed to create backups directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	name := fmt.Sprintf("%s_%s_%s.xlsx", base, time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	dstPath := filepath.Join(s.backupsDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy workbook backup: %w", err)
	}

	s.logger.Debug("workbook backed up",
		slog.String("backup", dstPath))
	return nil
}

// recordKey builds a stable identity string for duplicate detection. Extra
// columns participate in sorted order so map iteration cannot flip the key.
func recordKey(r domain.DealRecord) string {
	parts := []string{
		string(r.Kind),
		r.Company,
		r.Counterpart,
		r.RawAmount,
		r.Quarter,
		r.Sector,
		r.Description,
	}
	if len(r.Extra) > 0 {
		keys := make([]string, 0, len(r.Extra))
		for k := range r.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+r.Extra[k])
		}
	}
	return strings.Join(parts, "\x1f")
}
