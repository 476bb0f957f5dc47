package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO blacklist_entries (id, user_id, blocked_user_id, blocked_at)
		 VALUES (?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.BlockedUserID,
		entry.BlockedAt,
	).Error
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, userID, blockedUserID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM blacklist_entries WHERE user_id = ? AND blocked_user_id = ?`,
		userID,
		blockedUserID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) ExistsEitherDirection(ctx context.Context, db *gorm.DB, a, b snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM blacklist_entries
		 WHERE (user_id = ? AND blocked_user_id = ?)
		    OR (user_id = ? AND blocked_user_id = ?)`,
		a, b,
		b, a,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.Entry], error) {
	query := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("user_id = ?", userID).
		Order("blocked_at desc, id desc")
	return pagination.Paginate[domain.Entry](ctx, query, page)
}

func (r *repo) CrossingFavoriteIDs(ctx context.Context, db *gorm.DB, a, b snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT f.id FROM favorites f
		 WHERE (f.user_id = ? AND (
		         f.employer_id = ? OR f.student_id = ?
		         OR f.vacancy_id IN (SELECT v.id FROM vacancies v WHERE v.employer_id = ?)))
		    OR (f.user_id = ? AND (
		         f.employer_id = ? OR f.student_id = ?
		         OR f.vacancy_id IN (SELECT v.id FROM vacancies v WHERE v.employer_id = ?)))
		 ORDER BY f.id`,
		a, b, b, b,
		b, a, a, a,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) OpenInvitationIDs(ctx context.Context, db *gorm.DB, a, b snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM invitations
		 WHERE status IN ('sent', 'accepted')
		   AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		 ORDER BY id`,
		a, b,
		b, a,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) DeleteFavorites(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM favorites WHERE id IN ?`, ids)
	return res.RowsAffected, res.Error
}

func (r *repo) RejectInvitations(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = 'rejected', updated_at = ?
		 WHERE id IN ? AND status IN ('sent', 'accepted')`,
		at,
		ids,
	)
	return res.RowsAffected, res.Error
}
