package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/registration"
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
		log:       p.Log.Named("blacklist.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		accounts:  p.Accounts,
		gate:      p.Gate,
		clock:     clk,
		metrics:   p.Metrics,
		publisher: p.Publisher,
	}
}

func (s *Service) Block(ctx context.Context, blockerID, blockedID snowflake.ID) (*domain.BlockResult, error) {
	if blockerID == 0 || blockedID == 0 {
		return nil, domain.ErrInvalidID
	}
	if blockerID == blockedID {
		return nil, domain.ErrSelfBlock
	}

	blocker, err := s.accounts.GetActiveParticipant(ctx, blockerID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.accounts.GetActiveParticipant(ctx, blockedID)
	if err != nil {
		return nil, err
	}
	if accountdomain.IsAdministrator(blocked) {
		return nil, domain.ErrBlockAdministrator
	}
	if err := s.gate.Check(blocker.Role(), blocker.Stage(), registration.ActionBlockUser); err != nil {
		s.metrics.RecordPermissionDenied(ctx, string(blocker.Role()), string(registration.ActionBlockUser))
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, s.db, blockerID, blockedID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyBlocked
	}

	now := s.clock.Now()
	result := &domain.BlockResult{
		Entry: domain.Entry{
			ID:            s.genID.Generate(),
			UserID:        blockerID,
			BlockedUserID: blockedID,
			BlockedAt:     now,
		},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &result.Entry); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyBlocked
			}
			return err
		}
		return s.cascade(ctx, tx, blockerID, blockedID, now, result)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user blocked",
		zap.String("blocker_id", blockerID.String()),
		zap.String("blocked_id", blockedID.String()),
		zap.Int("removed_favorites", result.RemovedFavorites),
		zap.Int("rejected_invitations", result.RejectedInvitations),
	)
	s.metrics.RecordBlock(ctx, string(blocker.Role()))
	if result.RejectedInvitations > 0 {
		s.metrics.RecordInvitationTransition(ctx, "rejected", "block", int64(result.RejectedInvitations))
	}
	events.Emit(ctx, s.publisher, s.log, events.TopicUserBlocked, events.BlockEvent{
		BlockerID:          blockerID,
		BlockedID:          blockedID,
		RemovedFavorites:   result.RemovedFavorites,
		RejectedInvitation: result.RejectedInvitations,
	})
	return result, nil
}

// cascade gathers every favorite and open invitation spanning the pair first,
// then applies the removals, all inside the block transaction.
func (s *Service) cascade(ctx context.Context, tx *gorm.DB, a, b snowflake.ID, now time.Time, result *domain.BlockResult) error {
	favoriteIDs, err := s.repo.CrossingFavoriteIDs(ctx, tx, a, b)
	if err != nil {
		return err
	}
	invitationIDs, err := s.repo.OpenInvitationIDs(ctx, tx, a, b)
	if err != nil {
		return err
	}

	removed, err := s.repo.DeleteFavorites(ctx, tx, favoriteIDs)
	if err != nil {
		return err
	}
	rejected, err := s.repo.RejectInvitations(ctx, tx, invitationIDs, now)
	if err != nil {
		return err
	}

	result.RemovedFavorites = int(removed)
	result.RejectedInvitations = int(rejected)
	return nil
}

func (s *Service) IsBlockedEitherDirection(ctx context.Context, a, b snowflake.ID) (bool, error) {
	if a == 0 || b == 0 || a == b {
		return false, nil
	}
	return s.repo.ExistsEitherDirection(ctx, s.db, a, b)
}

func (s *Service) EnsureCommunicationAllowed(ctx context.Context, senderID, receiverID snowflake.ID) error {
	blocked, err := s.IsBlockedEitherDirection(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrCommunicationBlocked
	}
	return nil
}

func (s *Service) ListBlocked(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.Entry], error) {
	if userID == 0 {
		return pagination.Result[domain.Entry]{}, domain.ErrInvalidID
	}
	return s.repo.ListByUser(ctx, s.db, userID, page)
}
