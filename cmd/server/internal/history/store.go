package history

import (
	"encoding/hex"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/resumedit/pkg/logger"
	"github.com/houzhh15/resumedit/pkg/metrics"
)

// Store manages the per-section change logs behind a Storage port.
//
// Every operation is a synchronous read-modify-write of the whole mapping with
// no locking across the cycle: when two writers touch history concurrently the
// later Save wins and the earlier change is lost. Storage failures never reach
// the caller; a failed Load is treated as empty history and a failed Save is
// logged and dropped.
type Store struct {
	storage    Storage
	logger     *slog.Logger
	maxEntries int
	now        func() time.Time
	newID      func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report absorbed storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMaxEntries overrides MaxEntries. Values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore 创建历史存储，storage 为注入的持久化端口
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:    storage,
		logger:     logger.Discard(),
		maxEntries: MaxEntries,
		now:        time.Now,
		newID:      NewChangeID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewChangeID returns an id of the form chg_<10 hex digits>.
func NewChangeID() string {
	id := uuid.New()
	return "chg_" + hex.EncodeToString(id[:5])
}

// AddChange appends a change for sectionID and makes newContent the section's
// current content. The first change for a section fixes its original content.
func (s *Store) AddChange(sectionID, originalContent, newContent string, action Action, rationale string) ChangeEntry {
	all := s.load()
	entry := s.appendChange(all, sectionID, originalContent, newContent, action, rationale)
	s.save(all)
	return entry
}

// RestoreToChange makes entry.NewContent the current content of entry's section
// and records that as a restore entry. The entry is not checked against the
// section's log.
func (s *Store) RestoreToChange(entry ChangeEntry) ChangeEntry {
	all := s.load()
	before := entry.OriginalContent
	if h, ok := all[entry.SectionID]; ok && h != nil {
		before = h.CurrentContent
	}
	restored := s.appendChange(all, entry.SectionID, before, entry.NewContent, ActionRestore, "restored from "+entry.ID)
	s.save(all)
	return restored
}

func (s *Store) appendChange(all map[string]*SectionHistory, sectionID, originalContent, newContent string, action Action, rationale string) ChangeEntry {
	entry := ChangeEntry{
		ID:              s.newID(),
		Timestamp:       s.now(),
		SectionID:       sectionID,
		OriginalContent: originalContent,
		NewContent:      newContent,
		Rationale:       rationale,
		Action:          action,
	}

	h, ok := all[sectionID]
	if !ok || h == nil {
		h = &SectionHistory{
			SectionID:       sectionID,
			OriginalContent: originalContent,
			CurrentContent:  originalContent,
		}
		all[sectionID] = h
	}

	h.Changes = append(h.Changes, entry)
	if len(h.Changes) > s.maxEntries {
		h.Changes = append([]ChangeEntry(nil), h.Changes[len(h.Changes)-s.maxEntries:]...)
	}
	h.CurrentContent = newContent

	metrics.RecordHistoryChange(string(action))
	return entry
}

// GetSectionHistory returns a copy of the section's history.
func (s *Store) GetSectionHistory(sectionID string) (SectionHistory, bool) {
	h, ok := s.load()[sectionID]
	if !ok || h == nil {
		return SectionHistory{}, false
	}
	return h.clone(), true
}

// GetRecentChanges returns up to limit changes of the section, newest first.
// A limit of zero or less returns every retained change.
func (s *Store) GetRecentChanges(sectionID string, limit int) []ChangeEntry {
	h, ok := s.load()[sectionID]
	if !ok || h == nil {
		return []ChangeEntry{}
	}

	changes := make([]ChangeEntry, len(h.Changes))
	for i, c := range h.Changes {
		changes[len(h.Changes)-1-i] = c
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Timestamp.After(changes[j].Timestamp)
	})

	if limit > 0 && len(changes) > limit {
		changes = changes[:limit]
	}
	return changes
}

// FindChange looks up a change by id across all sections.
func (s *Store) FindChange(changeID string) (ChangeEntry, error) {
	for _, h := range s.load() {
		if h == nil {
			continue
		}
		for _, c := range h.Changes {
			if c.ID == changeID {
				return c, nil
			}
		}
	}
	return ChangeEntry{}, ErrChangeNotFound
}

// SectionIDs returns the ids of all tracked sections, sorted.
func (s *Store) SectionIDs() []string {
	all := s.load()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearSectionHistory removes one section. Clearing an unknown section is a no-op.
func (s *Store) ClearSectionHistory(sectionID string) {
	all := s.load()
	if _, ok := all[sectionID]; !ok {
		return
	}
	delete(all, sectionID)
	s.save(all)
}

// ClearAllHistory removes every section.
func (s *Store) ClearAllHistory() {
	s.save(map[string]*SectionHistory{})
}

func (s *Store) load() map[string]*SectionHistory {
	all, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("history load failed, using empty history", "error", err)
		metrics.RecordPersistenceFailure("load")
		return map[string]*SectionHistory{}
	}
	if all == nil {
		return map[string]*SectionHistory{}
	}
	return all
}

func (s *Store) save(all map[string]*SectionHistory) {
	if err := s.storage.Save(all); err != nil {
		s.logger.Warn("history save failed, change not persisted", "error", err)
		metrics.RecordPersistenceFailure("save")
	}
}
