package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/vacancy/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vacancy, error) {
	var vacancy domain.Vacancy
	err := db.WithContext(ctx).Raw(
		`SELECT id, employer_id, title, created_at, updated_at, deleted_at
		 FROM vacancies WHERE id = ?`,
		id,
	).Scan(&vacancy).Error
	if err != nil {
		return nil, err
	}
	if vacancy.ID == 0 {
		return nil, nil
	}
	return &vacancy, nil
}

func (r *repo) ListByEmployer(ctx context.Context, db *gorm.DB, employerID snowflake.ID, page pagination.Request) (pagination.Result[domain.Vacancy], error) {
	query := db.WithContext(ctx).
		Table("vacancies").
		Where("employer_id = ? AND deleted_at IS NULL", employerID).
		Order("created_at desc, id desc")
	return pagination.Paginate[domain.Vacancy](ctx, query, page)
}
