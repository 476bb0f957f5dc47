package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/vacancy/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("vacancy.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetActive(ctx context.Context, id snowflake.ID) (*domain.Vacancy, error) {
	if id == 0 {
		return nil, domain.ErrVacancyNotFound
	}
	vacancy, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if vacancy == nil || vacancy.IsDeleted() {
		return nil, domain.ErrVacancyNotFound
	}
	return vacancy, nil
}

func (s *Service) ListByEmployer(ctx context.Context, employerID snowflake.ID, page pagination.Request) (pagination.Result[domain.Vacancy], error) {
	return s.repo.ListByEmployer(ctx, s.db, employerID, page)
}
