package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	blacklistdomain "github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/invitation/domain"
	"github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/registration"
	vacancydomain "github.com/smallbiznis/internlink/internal/vacancy/domain"
	"github.com/smallbiznis/internlink/pkg/db"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	transitionSourceUser  = "user"
	transitionSourceLazy  = "lazy"
	transitionSourceSweep = "sweep"
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
	Policy    *config.PolicyHolder
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
	policy    *config.PolicyHolder
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
		log:       p.Log.Named("invitation.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		accounts:  p.Accounts,
		vacancies: p.Vacancies,
		blacklist: p.Blacklist,
		gate:      p.Gate,
		policy:    p.Policy,
		clock:     clk,
		metrics:   p.Metrics,
		publisher: p.Publisher,
	}
}

func (s *Service) Create(ctx context.Context, senderID snowflake.ID, req domain.CreateInvitationRequest, typ domain.Type) (*domain.Invitation, error) {
	if senderID == 0 || req.ReceiverID == 0 {
		return nil, domain.ErrInvalidID
	}
	if !typ.Valid() {
		return nil, domain.ErrInvalidType
	}
	if senderID == req.ReceiverID {
		return nil, domain.ErrSelfInvitation
	}

	policy := s.policy.Get()
	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > policy.MaxInvitationText {
		return nil, domain.ErrMessageTooLong
	}

	sender, err := s.accounts.GetActiveParticipant(ctx, senderID)
	if err != nil {
		return nil, err
	}
	senderRole, receiverRole, action := rolesFor(typ)
	if sender.Role() != senderRole {
		return nil, domain.ErrRoleMismatch
	}
	if err := s.gate.Check(sender.Role(), sender.Stage(), action); err != nil {
		s.metrics.RecordPermissionDenied(ctx, string(sender.Role()), string(action))
		return nil, err
	}

	receiver, err := s.accounts.GetActiveParticipant(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver.Role() != receiverRole {
		return nil, domain.ErrRoleMismatch
	}

	studentID, employerID := sender.ID(), receiver.ID()
	if typ == domain.TypeOffer {
		studentID, employerID = receiver.ID(), sender.ID()
	}

	var vacancyKey snowflake.ID
	if req.VacancyID != nil && *req.VacancyID != 0 {
		vacancy, err := s.vacancies.GetActive(ctx, *req.VacancyID)
		if err != nil {
			return nil, err
		}
		if vacancy.EmployerID != employerID {
			return nil, domain.ErrVacancyNotOwned
		}
		vacancyKey = vacancy.ID
	}
	if req.ResumeID != nil && *req.ResumeID != 0 {
		resume, err := s.accounts.GetActiveResume(ctx, *req.ResumeID)
		if err != nil {
			return nil, err
		}
		if resume.StudentID != studentID {
			return nil, domain.ErrResumeNotOwned
		}
	}

	if err := s.blacklist.EnsureCommunicationAllowed(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsActive(ctx, s.db, studentID, employerID, vacancyKey, typ)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicate
	}

	now := s.clock.Now()
	expiresAt := now.Add(policy.InvitationTTL)
	inv := &domain.Invitation{
		ID:         s.genID.Generate(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		StudentID:  studentID,
		EmployerID: employerID,
		VacancyKey: vacancyKey,
		ResumeID:   nonZero(req.ResumeID),
		Type:       typ,
		Message:    message,
		Status:     domain.StatusSent,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  &expiresAt,
	}
	if vacancyKey != 0 {
		inv.VacancyID = &vacancyKey
	}

	// The partial unique index is the authority when two creates race past
	// the pre-check.
	if err := s.repo.Insert(ctx, s.db, inv); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}

	s.log.Info("invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("type", string(typ)),
		zap.String("sender_id", senderID.String()),
		zap.String("receiver_id", req.ReceiverID.String()),
	)
	s.metrics.RecordInvitationCreated(ctx, string(typ))
	events.Emit(ctx, s.publisher, s.log, events.TopicInvitationCreated, invitationEvent(inv, senderID))
	return inv, nil
}

func (s *Service) ChangeStatus(ctx context.Context, actorID, invitationID snowflake.ID, status domain.Status) (*domain.Invitation, error) {
	if actorID == 0 || invitationID == 0 {
		return nil, domain.ErrInvalidID
	}
	switch status {
	case domain.StatusAccepted, domain.StatusRejected, domain.StatusCancelled:
	default:
		return nil, domain.ErrInvalidStatus
	}

	inv, err := s.repo.FindByID(ctx, s.db, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvitationNotFound
	}
	if inv.Status.Terminal() {
		return nil, domain.ErrOperationNotAllowed
	}

	now := s.clock.Now()
	if inv.PastDue(now) {
		s.expireOne(ctx, inv, now)
		return nil, domain.ErrExpired
	}

	switch status {
	case domain.StatusAccepted, domain.StatusRejected:
		if actorID != inv.ReceiverID {
			return nil, domain.ErrNotReceiver
		}
	case domain.StatusCancelled:
		if actorID != inv.SenderID {
			return nil, domain.ErrNotSender
		}
	}

	affected, err := s.repo.TransitionFromSent(ctx, s.db, inv.ID, status, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrOperationNotAllowed
	}
	inv.Status = status
	inv.UpdatedAt = now

	s.log.Info("invitation status changed",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("status", string(status)),
		zap.String("actor_id", actorID.String()),
	)
	s.metrics.RecordInvitationTransition(ctx, string(status), transitionSourceUser, 1)
	events.Emit(ctx, s.publisher, s.log, topicFor(status), invitationEvent(inv, actorID))
	return inv, nil
}

// expireOne records a lazily observed expiry. Failures are logged; the sweep
// will pick the row up later.
func (s *Service) expireOne(ctx context.Context, inv *domain.Invitation, now time.Time) {
	affected, err := s.repo.TransitionFromSent(ctx, s.db, inv.ID, domain.StatusExpired, now)
	if err != nil {
		s.log.Warn("lazy invitation expiry failed", zap.String("invitation_id", inv.ID.String()), zap.Error(err))
		return
	}
	if affected > 0 {
		s.metrics.RecordInvitationTransition(ctx, string(domain.StatusExpired), transitionSourceLazy, affected)
	}
}

func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = s.clock.Now()
	}

	var expired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		expired, err = s.repo.ExpireStale(ctx, tx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.metrics.RecordInvitationTransition(ctx, string(domain.StatusExpired), transitionSourceSweep, expired)
		events.Emit(ctx, s.publisher, s.log, events.TopicInvitationsExpired, events.InvitationsExpiredEvent{
			Count: expired,
			At:    now,
		})
	}
	return expired, nil
}

func (s *Service) Get(ctx context.Context, actorID, invitationID snowflake.ID) (*domain.Invitation, error) {
	if actorID == 0 || invitationID == 0 {
		return nil, domain.ErrInvalidID
	}
	inv, err := s.repo.FindByID(ctx, s.db, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil || !inv.IsParty(actorID) {
		return nil, domain.ErrInvitationNotFound
	}
	return inv, nil
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID, filter domain.ListFilter, page pagination.Request) (pagination.Result[domain.Invitation], error) {
	if userID == 0 {
		return pagination.Result[domain.Invitation]{}, domain.ErrInvalidID
	}
	switch filter.Direction {
	case domain.DirectionAll, domain.DirectionIncoming, domain.DirectionOutgoing:
	default:
		return pagination.Result[domain.Invitation]{}, domain.ErrInvalidDirection
	}
	if filter.Status != "" && filter.Status != domain.StatusSent && !filter.Status.Terminal() {
		return pagination.Result[domain.Invitation]{}, domain.ErrInvalidStatus
	}
	return s.repo.ListForUser(ctx, s.db, userID, filter, page)
}

func rolesFor(typ domain.Type) (sender, receiver accountdomain.Role, action registration.Action) {
	if typ == domain.TypeOffer {
		return accountdomain.RoleEmployer, accountdomain.RoleStudent, registration.ActionSendOffer
	}
	return accountdomain.RoleStudent, accountdomain.RoleEmployer, registration.ActionSendResponse
}

func topicFor(status domain.Status) string {
	switch status {
	case domain.StatusAccepted:
		return events.TopicInvitationAccepted
	case domain.StatusRejected:
		return events.TopicInvitationRejected
	default:
		return events.TopicInvitationCancelled
	}
}

func invitationEvent(inv *domain.Invitation, actorID snowflake.ID) events.InvitationEvent {
	return events.InvitationEvent{
		InvitationID: inv.ID,
		SenderID:     inv.SenderID,
		ReceiverID:   inv.ReceiverID,
		VacancyID:    inv.VacancyID,
		Type:         string(inv.Type),
		Status:       string(inv.Status),
		ActorID:      actorID,
	}
}

func nonZero(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
