// Package session persists conversation history. Session ids are
// caller-chosen strings; an unknown id starts a new session implicitly on
// first use.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type (
	Manager interface {
		// GetOrCreate resolves the session, creating it on first use.
		GetOrCreate(ctx context.Context, sessionID, caseID string) (*entity.Session, error)

		// AppendTurn records one completed exchange at the end of the
		// session's history.
		AppendTurn(ctx context.Context, sessionID, query string, response entity.TurnResponse, routing entity.TurnRouting) (*entity.Turn, error)

		// GetTurns returns history oldest-first. limit 0 means all turns.
		GetTurns(ctx context.Context, sessionID string, limit uint) ([]entity.Turn, error)

		// Clear removes the session and its turns. Clearing an unknown
		// session is not an error.
		Clear(ctx context.Context, sessionID string) error
	}

	manager struct {
		logger *mylog.Logger
		db     *gorm.DB

		// Serializes appends per session so concurrent turns keep insertion
		// order.
		locks sync.Map
	}
)

var _ Manager = (*manager)(nil)

func NewManager(logger *mylog.Logger, dbPath string) (Manager, error) {
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open session database at %s", dbPath)
	}

	if err := db.AutoMigrate(&entity.Session{}, &entity.Turn{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate session tables")
	}

	return &manager{logger: logger, db: db}, nil
}

// NewManagerWithDB wires an existing connection; tests use it with in-memory
// sqlite.
func NewManagerWithDB(logger *mylog.Logger, db *gorm.DB) (Manager, error) {
	if err := db.AutoMigrate(&entity.Session{}, &entity.Turn{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate session tables")
	}
	return &manager{logger: logger, db: db}, nil
}

func (m *manager) GetOrCreate(ctx context.Context, sessionID, caseID string) (*entity.Session, error) {
	if sessionID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "session id is required")
	}

	var session entity.Session
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Where("session_id = ?", sessionID).Find(&session)
		if r.Error != nil {
			return errors.Wrapf(r.Error, "failed to find session")
		}
		if r.RowsAffected > 0 {
			if caseID != "" && session.CaseID == "" {
				session.CaseID = caseID
				if err := tx.Save(&session).Error; err != nil {
					return errors.Wrapf(err, "failed to update session case")
				}
			}
			return nil
		}

		session = entity.Session{SessionID: sessionID, CaseID: caseID}
		if err := tx.Create(&session).Error; err != nil {
			return errors.Wrapf(err, "failed to create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (m *manager) AppendTurn(ctx context.Context, sessionID, query string, response entity.TurnResponse, routing entity.TurnRouting) (*entity.Turn, error) {
	mu, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	session, err := m.GetOrCreate(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}

	turn := entity.Turn{
		SessionRef: session.ID,
		Query:      query,
		Response:   datatypes.NewJSONType(response),
		Routing:    datatypes.NewJSONType(routing),
	}
	if err := m.db.WithContext(ctx).Create(&turn).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to append turn")
	}

	return &turn, nil
}

func (m *manager) GetTurns(ctx context.Context, sessionID string, limit uint) ([]entity.Turn, error) {
	var session entity.Session
	r := m.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&session)
	if r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to find session")
	}
	if r.RowsAffected == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "session %q", sessionID)
	}

	stmt := m.db.WithContext(ctx).
		Where("session_ref = ?", session.ID).
		Order("id ASC")
	if limit > 0 {
		stmt = stmt.Limit(int(limit))
	}

	var turns []entity.Turn
	if err := stmt.Find(&turns).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to find turns")
	}

	return turns, nil
}

func (m *manager) Clear(ctx context.Context, sessionID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session entity.Session
		r := tx.Where("session_id = ?", sessionID).Find(&session)
		if r.Error != nil {
			return errors.Wrapf(r.Error, "failed to find session")
		}
		if r.RowsAffected == 0 {
			return nil
		}

		if err := tx.Unscoped().Delete(&entity.Turn{}, "session_ref = ?", session.ID).Error; err != nil {
			return errors.Wrapf(err, "failed to delete turns")
		}
		if err := tx.Unscoped().Delete(&session).Error; err != nil {
			return errors.Wrapf(err, "failed to delete session")
		}

		m.locks.Delete(sessionID)
		return nil
	})
}
