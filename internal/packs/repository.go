package packs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/pkg/db/models"
)

// Repository persists pack submission audit rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert writes the submission row.
func (r *Repository) Insert(ctx context.Context, submission *models.PackSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// ListBySession returns submissions for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.PackSubmission, error) {
	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.PackSubmission
	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
