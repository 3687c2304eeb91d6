package memory

import (
	"context"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/lawyrs/counsel/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VectorStore is the local semantic backend: entry rows in a regular table,
// embeddings in a sqlite-vec virtual table keyed by entry identity.
type VectorStore struct {
	db     *gorm.DB
	vecDim int
}

type VectorEntryRecord struct {
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

func (VectorEntryRecord) TableName() string {
	return "semantic_entries"
}

var _ Store = (*VectorStore)(nil)

func NewVectorStore(dbPath string, dimension int) (*VectorStore, error) {
	sqlite_vec.Auto()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	store := &VectorStore{db: db, vecDim: dimension}

	if err := db.AutoMigrate(&VectorEntryRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate semantic entries table")
	}
	if err := store.createVectorTable(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *VectorStore) createVectorTable() error {
	var sqliteVersion, vecVersion string
	if err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion); err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entry_vectors USING vec0(
			entry_identity TEXT PRIMARY KEY,
			embedding float[%d]
		);
	`, s.vecDim)

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create entry_vectors table")
	}

	return nil
}

func (s *VectorStore) Put(ctx context.Context, entry *Entry) error {
	identity := entry.Identity()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := VectorEntryRecord{
			Identity:   identity,
			CaseID:     entry.CaseID,
			SessionID:  entry.SessionID,
			AgentType:  entry.AgentType,
			Key:        entry.Key,
			Value:      entry.Value,
			Tags:       datatypes.NewJSONType(entry.Tags),
			Confidence: entry.Confidence,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}},
			UpdateAll: true,
		}).Create(&record).Error; err != nil {
			return errors.Wrapf(err, "failed to upsert semantic entry %q", identity)
		}

		if len(entry.Embedding) == 0 {
			return nil
		}

		// vec0 virtual tables do not support upsert; replace explicitly.
		if err := tx.Exec("DELETE FROM entry_vectors WHERE entry_identity = ?", identity).Error; err != nil {
			return errors.Wrapf(err, "failed to delete existing vector")
		}

		serialized, err := sqlite_vec.SerializeFloat32(entry.Embedding)
		if err != nil {
			return errors.Wrapf(err, "failed to serialize embedding")
		}

		if err := tx.Exec("INSERT INTO entry_vectors (entry_identity, embedding) VALUES (?, ?)",
			identity, serialized).Error; err != nil {
			return errors.Wrapf(err, "failed to insert entry vector")
		}

		return nil
	})
}

func (s *VectorStore) Get(ctx context.Context, identity string) (*Entry, error) {
	var record VectorEntryRecord
	if err := s.db.WithContext(ctx).First(&record, "identity = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "memory entry %q", identity)
		}
		return nil, errors.Wrapf(err, "failed to fetch semantic entry %q", identity)
	}
	return record.toEntry(), nil
}

func (s *VectorStore) Search(ctx context.Context, caseID, query string, queryEmbedding []float32, limit int) ([]ScoredEntry, error) {
	if len(queryEmbedding) == 0 {
		// No embedding available (provider down): degrade to keyword scoring
		// over the case's rows rather than failing the search.
		entries, err := s.List(ctx, caseID)
		if err != nil {
			return nil, err
		}
		return scoreByKeywords(entries, query, limit), nil
	}

	serialized, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT entry_identity, distance
		FROM entry_vectors
		WHERE embedding MATCH ?
		ORDER BY distance
		LIMIT ?
	`, serialized, max(limit*2, 1)).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to execute vector search")
	}
	defer rows.Close()

	distanceByID := make(map[string]float32)
	var ids []string
	for rows.Next() {
		var id string
		var distance float32
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan vector search row")
		}
		ids = append(ids, id)
		distanceByID[id] = distance
	}
	if len(ids) == 0 {
		return nil, nil
	}

	tx := s.db.WithContext(ctx).Where("identity IN ?", ids)
	if caseID != "" {
		tx = tx.Where("case_id = ?", caseID)
	}
	var records []VectorEntryRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch semantic entries")
	}

	results := make([]ScoredEntry, 0, len(records))
	for _, record := range records {
		results = append(results, ScoredEntry{
			Entry: record.toEntry(),
			Score: 1.0 - float64(distanceByID[record.Identity]),
		})
	}

	sortByScore(results)
	return limitTo(results, limit), nil
}

func (s *VectorStore) List(ctx context.Context, caseID string) ([]*Entry, error) {
	tx := s.db.WithContext(ctx).Model(&VectorEntryRecord{}).Order("updated_at ASC")
	if caseID != "" {
		tx = tx.Where("case_id = ?", caseID)
	}

	var records []VectorEntryRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list semantic entries")
	}

	entries := make([]*Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toEntry())
	}
	return entries, nil
}

func (s *VectorStore) Delete(ctx context.Context, identity string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM entry_vectors WHERE entry_identity = ?", identity).Error; err != nil {
			return errors.Wrapf(err, "failed to delete entry vector")
		}
		if err := tx.Delete(&VectorEntryRecord{}, "identity = ?", identity).Error; err != nil {
			return errors.Wrapf(err, "failed to delete semantic entry")
		}
		return nil
	})
}

func (s *VectorStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *VectorEntryRecord) toEntry() *Entry {
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
