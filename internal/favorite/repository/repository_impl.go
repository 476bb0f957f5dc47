package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/favorite/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, kind domain.Kind, targetID snowflake.ID) (*domain.Favorite, error) {
	var fav domain.Favorite
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, vacancy_id, employer_id, student_id, target_kind, target_id, added_at
		 FROM favorites
		 WHERE user_id = ? AND target_kind = ? AND target_id = ?`,
		userID, kind, targetID,
	).Scan(&fav).Error
	if err != nil {
		return nil, err
	}
	if fav.ID == 0 {
		return nil, nil
	}
	return &fav, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, fav *domain.Favorite) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO favorites (id, user_id, vacancy_id, employer_id, student_id, target_kind, target_id, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fav.ID, fav.UserID, fav.VacancyID, fav.EmployerID, fav.StudentID, fav.TargetKind, fav.TargetID, fav.AddedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM favorites WHERE id = ?`, id)
	return res.RowsAffected, res.Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.Favorite], error) {
	query := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Order("added_at desc, id desc")
	return pagination.Paginate[domain.Favorite](ctx, query, page)
}
