package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/lawyrs/counsel/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SqliteStore is the always-available keyword fallback backend. It carries no
// embeddings; search is term matching over the stored text with recency as
// the tie-break.
type SqliteStore struct {
	db *gorm.DB
}

type EntryRecord struct {
	Identity  string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CaseID     string `gorm:"index"`
	SessionID  string `gorm:"index"`
	AgentType  string
	Key        string
	Value      string
	Tags       datatypes.JSONType[[]string]
	Confidence float64
}

func (EntryRecord) TableName() string {
	return "memory_entries"
}

var _ Store = (*SqliteStore)(nil)

func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	if err := db.AutoMigrate(&EntryRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate memory entries table")
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Put(ctx context.Context, entry *Entry) error {
	record := EntryRecord{
		Identity:   entry.Identity(),
		CaseID:     entry.CaseID,
		SessionID:  entry.SessionID,
		AgentType:  entry.AgentType,
		Key:        entry.Key,
		Value:      entry.Value,
		Tags:       datatypes.NewJSONType(entry.Tags),
		Confidence: entry.Confidence,
	}

	// Last write wins on identity conflicts.
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		UpdateAll: true,
	}).Create(&record).Error; err != nil {
		return errors.Wrapf(err, "failed to upsert memory entry %q", record.Identity)
	}

	return nil
}

func (s *SqliteStore) Get(ctx context.Context, identity string) (*Entry, error) {
	var record EntryRecord
	if err := s.db.WithContext(ctx).First(&record, "identity = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "memory entry %q", identity)
		}
		return nil, errors.Wrapf(err, "failed to fetch memory entry %q", identity)
	}
	return record.toEntry(), nil
}

func (s *SqliteStore) Search(ctx context.Context, caseID, query string, _ []float32, limit int) ([]ScoredEntry, error) {
	// This backend ignores embeddings: pull the case's entries newest-first
	// and score by term overlap in process.
	tx := s.db.WithContext(ctx).Model(&EntryRecord{}).Order("updated_at DESC")
	if caseID != "" {
		tx = tx.Where("case_id = ?", caseID)
	}

	var records []EntryRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to search memory entries")
	}

	entries := make([]*Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toEntry())
	}

	return scoreByKeywords(entries, query, limit), nil
}

func (s *SqliteStore) List(ctx context.Context, caseID string) ([]*Entry, error) {
	tx := s.db.WithContext(ctx).Model(&EntryRecord{}).Order("updated_at ASC")
	if caseID != "" {
		tx = tx.Where("case_id = ?", caseID)
	}

	var records []EntryRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list memory entries")
	}

	entries := make([]*Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toEntry())
	}
	return entries, nil
}

func (s *SqliteStore) Delete(ctx context.Context, identity string) error {
	if err := s.db.WithContext(ctx).Delete(&EntryRecord{}, "identity = ?", identity).Error; err != nil {
		return errors.Wrapf(err, "failed to delete memory entry %q", identity)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *EntryRecord) toEntry() *Entry {
	return &Entry{
		CaseID:     r.CaseID,
		SessionID:  r.SessionID,
		AgentType:  r.AgentType,
		Key:        r.Key,
		Value:      r.Value,
		Tags:       r.Tags.Data(),
		Confidence: r.Confidence,
		CreatedAt:  r.CreatedAt,
	}
}
