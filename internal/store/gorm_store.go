package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"echoday/internal/model"
)

type taskRow struct {
	ID     string     `gorm:"primaryKey"`
	UserID string     `gorm:"index"`
	Seq    int        // preserves collection order across get/set cycles
	Data   model.Task `gorm:"serializer:json"`
}

type noteRow struct {
	ID     string     `gorm:"primaryKey"`
	UserID string     `gorm:"index"`
	Seq    int
	Data   model.Note `gorm:"serializer:json"`
}

type userState struct {
	UserID          string `gorm:"primaryKey"`
	LastArchiveDate string
}

// GormStore persists collections in SQLite. SetTasks/SetNotes replace the
// user's rows in a single transaction, which is what gives the engine its
// snapshot-read-then-full-replace-write semantics.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var rows []taskRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks := make([]model.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.Data
	}
	return tasks, nil
}

func (s *GormStore) SetTasks(ctx context.Context, userID string, tasks []model.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	rows := make([]taskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow{ID: t.ID, UserID: userID, Seq: i, Data: t}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&taskRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (s *GormStore) GetNotes(ctx context.Context, userID string) ([]model.Note, error) {
	var rows []noteRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	notes := make([]model.Note, len(rows))
	for i, row := range rows {
		notes[i] = row.Data
	}
	return notes, nil
}

func (s *GormStore) SetNotes(ctx context.Context, userID string, notes []model.Note) error {
	rows := make([]noteRow, len(notes))
	for i, n := range notes {
		rows[i] = noteRow{ID: n.ID, UserID: userID, Seq: i, Data: n}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&noteRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

func (s *GormStore) LastArchiveDate(ctx context.Context, userID string) (string, error) {
	var state userState
	err := s.db.WithContext(ctx).First(&state, "user_id = ?", userID).Error
	switch {
	case err == nil:
		return state.LastArchiveDate, nil
	case err == gorm.ErrRecordNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("load archive date: %w", err)
	}
}

func (s *GormStore) SetLastArchiveDate(ctx context.Context, userID, date string) error {
	state := userState{UserID: userID, LastArchiveDate: date}
	if err := s.db.WithContext(ctx).Save(&state).Error; err != nil {
		return fmt.Errorf("save archive date: %w", err)
	}
	return nil
}
