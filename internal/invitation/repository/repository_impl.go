package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/invitation/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invitation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invitations (id, sender_id, receiver_id, student_id, employer_id, vacancy_id, vacancy_key,
		                          resume_id, type, message, status, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.SenderID,
		inv.ReceiverID,
		inv.StudentID,
		inv.EmployerID,
		inv.VacancyID,
		inv.VacancyKey,
		inv.ResumeID,
		inv.Type,
		inv.Message,
		inv.Status,
		inv.CreatedAt,
		inv.UpdatedAt,
		inv.ExpiresAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := db.WithContext(ctx).Raw(
		`SELECT id, sender_id, receiver_id, student_id, employer_id, vacancy_id, vacancy_key, resume_id,
		        type, message, status, created_at, updated_at, expires_at
		 FROM invitations WHERE id = ?`,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) ExistsActive(ctx context.Context, db *gorm.DB, studentID, employerID, vacancyKey snowflake.ID, typ domain.Type) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM invitations
		 WHERE student_id = ? AND employer_id = ? AND vacancy_key = ? AND type = ? AND status = ?`,
		studentID,
		employerID,
		vacancyKey,
		typ,
		domain.StatusSent,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) TransitionFromSent(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status,
		at,
		id,
		domain.StatusSent,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ExpireStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?`,
		domain.StatusExpired,
		now,
		domain.StatusSent,
		now,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ListForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListFilter, page pagination.Request) (pagination.Result[domain.Invitation], error) {
	stmt := db.WithContext(ctx).Model(&domain.Invitation{})
	switch filter.Direction {
	case domain.DirectionIncoming:
		stmt = stmt.Where("receiver_id = ?", userID)
	case domain.DirectionOutgoing:
		stmt = stmt.Where("sender_id = ?", userID)
	default:
		stmt = stmt.Where("(sender_id = ? OR receiver_id = ?)", userID, userID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = stmt.Order("created_at desc, id desc")
	return pagination.Paginate[domain.Invitation](ctx, stmt, page)
}
