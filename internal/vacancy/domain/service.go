package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

type Service interface {
	// GetActive fails with ErrVacancyNotFound for missing or deleted vacancies.
	GetActive(ctx context.Context, id snowflake.ID) (*Vacancy, error)
	ListByEmployer(ctx context.Context, employerID snowflake.ID, page pagination.Request) (pagination.Result[Vacancy], error)
}

var ErrVacancyNotFound = apperr.NotFound("vacancy_not_found", "vacancy not found")
