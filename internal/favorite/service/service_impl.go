package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	blacklistdomain "github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/favorite/domain"
	"github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/registration"
	vacancydomain "github.com/smallbiznis/internlink/internal/vacancy/domain"
	"github.com/smallbiznis/internlink/pkg/db"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Accounts  accountdomain.Service
	Vacancies vacancydomain.Service
	Blacklist blacklistdomain.Service
	Gate      *registration.Gate
	Clock     clock.Clock
	Metrics   *metrics.Metrics `optional:"true"`
	Publisher events.Publisher `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	accounts  accountdomain.Service
	vacancies vacancydomain.Service
	blacklist blacklistdomain.Service
	gate      *registration.Gate
	clock     clock.Clock
	metrics   *metrics.Metrics
	publisher events.Publisher
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("favorite.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		accounts:  p.Accounts,
		vacancies: p.Vacancies,
		blacklist: p.Blacklist,
		gate:      p.Gate,
		clock:     clk,
		metrics:   p.Metrics,
		publisher: p.Publisher,
	}
}

func (s *Service) Toggle(ctx context.Context, userID snowflake.ID, kind domain.Kind, targetID snowflake.ID) (*domain.ToggleResult, error) {
	if userID == 0 || targetID == 0 {
		return nil, domain.ErrInvalidID
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if kind != domain.KindVacancy && targetID == userID {
		return nil, domain.ErrSelfFavorite
	}

	user, err := s.accounts.GetActiveParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !kindAllowed(user.Role(), kind) {
		return nil, domain.ErrKindNotAllowed
	}

	existing, err := s.repo.Find(ctx, s.db, userID, kind, targetID)
	if err != nil {
		return nil, err
	}

	// Removal skips the target, stage and block checks so a favorite whose
	// target went away can still be cleared.
	result := &domain.ToggleResult{}
	if existing != nil {
		if _, err := s.repo.Delete(ctx, s.db, existing.ID); err != nil {
			return nil, err
		}
	} else {
		fav, err := s.add(ctx, user, kind, targetID)
		if err != nil {
			return nil, err
		}
		result.Favorited = true
		result.Favorite = fav
	}

	s.log.Info("favorite toggled",
		zap.String("user_id", userID.String()),
		zap.String("kind", string(kind)),
		zap.String("target_id", targetID.String()),
		zap.Bool("favorited", result.Favorited),
	)
	s.metrics.RecordFavoriteToggled(ctx, string(kind), result.Favorited)
	events.Emit(ctx, s.publisher, s.log, events.TopicFavoriteToggled, events.FavoriteEvent{
		UserID:     userID,
		TargetKind: string(kind),
		TargetID:   targetID,
		Favorited:  result.Favorited,
	})
	return result, nil
}

func (s *Service) add(ctx context.Context, user accountdomain.Participant, kind domain.Kind, targetID snowflake.ID) (*domain.Favorite, error) {
	counterpartID, err := s.resolveTarget(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Check(user.Role(), user.Stage(), registration.ActionAddFavorite); err != nil {
		s.metrics.RecordPermissionDenied(ctx, string(user.Role()), string(registration.ActionAddFavorite))
		return nil, err
	}
	if err := s.blacklist.EnsureCommunicationAllowed(ctx, user.ID(), counterpartID); err != nil {
		return nil, err
	}

	fav := domain.NewFavorite(s.genID.Generate(), user.ID(), kind, targetID, s.clock.Now())
	if err := s.repo.Insert(ctx, s.db, fav); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return fav, nil
}

// resolveTarget checks the target is live and returns the user on the other
// side of the relationship.
func (s *Service) resolveTarget(ctx context.Context, kind domain.Kind, targetID snowflake.ID) (snowflake.ID, error) {
	if kind == domain.KindVacancy {
		vacancy, err := s.vacancies.GetActive(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return vacancy.EmployerID, nil
	}

	target, err := s.accounts.GetActiveParticipant(ctx, targetID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return 0, domain.ErrTargetNotFound
		}
		return 0, err
	}
	if string(target.Role()) != string(kind) {
		return 0, domain.ErrTargetNotFound
	}
	return target.ID(), nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.Favorite], error) {
	if userID == 0 {
		return pagination.Result[domain.Favorite]{}, domain.ErrInvalidID
	}
	return s.repo.ListByUser(ctx, s.db, userID, page)
}

func kindAllowed(role accountdomain.Role, kind domain.Kind) bool {
	switch role {
	case accountdomain.RoleStudent:
		return kind == domain.KindVacancy || kind == domain.KindEmployer
	case accountdomain.RoleEmployer:
		return kind == domain.KindStudent
	}
	return false
}
