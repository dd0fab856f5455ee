package roster

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a Directory backed by the operators table. Every read goes to the
// database, so status changes written by other processes are seen at once.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db. The operators table must already be migrated.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("roster: db is required")
	}
	return &Store{db: db}, nil
}

// Upsert writes op, keeping the stored handled counter on conflict.
func (s *Store) Upsert(op Operator) error {
	if err := Validate(op); err != nil {
		return err
	}
	row, err := toRow(op)
	if err != nil {
		return err
	}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "status", "skills", "max_concurrent"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("roster: upsert %s: %w", op.ID, result.Error)
	}
	return nil
}

func (s *Store) Get(id string) (Operator, error) {
	var row models.Operator
	err := s.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Operator{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Operator{}, fmt.Errorf("roster: get %s: %w", id, err)
	}
	return fromRow(row)
}

func (s *Store) List() ([]Operator, error) {
	var rows []models.Operator
	if err := s.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("roster: list: %w", err)
	}
	out := make([]Operator, 0, len(rows))
	for _, r := range rows {
		op, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func (s *Store) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("roster: invalid status %q", status)
	}
	result := s.db.Model(&models.Operator{}).Where("id = ?", id).Update("status", string(status))
	if result.Error != nil {
		return fmt.Errorf("roster: set status %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) IncrementHandled(id string) error {
	result := s.db.Model(&models.Operator{}).Where("id = ?", id).
		Update("today_handled", gorm.Expr("today_handled + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("roster: increment handled %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) ResetHandled() error {
	if err := s.db.Model(&models.Operator{}).Where("1 = 1").Update("today_handled", 0).Error; err != nil {
		return fmt.Errorf("roster: reset handled: %w", err)
	}
	return nil
}

func toRow(op Operator) (models.Operator, error) {
	skills := "[]"
	if len(op.Skills) > 0 {
		data, err := json.Marshal(op.Skills)
		if err != nil {
			return models.Operator{}, fmt.Errorf("roster: marshal skills for %s: %w", op.ID, err)
		}
		skills = string(data)
	}
	return models.Operator{
		ID:            op.ID,
		Name:          op.Name,
		Status:        string(op.Status),
		Skills:        skills,
		MaxConcurrent: op.MaxConcurrent,
		TodayHandled:  op.TodayHandled,
	}, nil
}

func fromRow(r models.Operator) (Operator, error) {
	var skills []string
	if r.Skills != "" {
		if err := json.Unmarshal([]byte(r.Skills), &skills); err != nil {
			return Operator{}, fmt.Errorf("roster: unmarshal skills for %s: %w", r.ID, err)
		}
	}
	return Operator{
		ID:            r.ID,
		Name:          r.Name,
		Status:        Status(r.Status),
		Skills:        skills,
		MaxConcurrent: r.MaxConcurrent,
		TodayHandled:  r.TodayHandled,
	}, nil
}

var _ Directory = (*Store)(nil)
