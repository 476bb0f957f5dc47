package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/registration"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Engine    *registration.Engine
	Policy    *config.PolicyHolder
	Clock     clock.Clock
	Publisher events.Publisher `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	engine    *registration.Engine
	policy    *config.PolicyHolder
	clock     clock.Clock
	publisher events.Publisher
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("account.service"),
		repo:      p.Repo,
		engine:    p.Engine,
		policy:    p.Policy,
		clock:     clk,
		publisher: p.Publisher,
	}
}

func (s *Service) GetParticipant(ctx context.Context, id snowflake.ID) (domain.Participant, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	participants, err := s.loadParticipants(ctx, s.db, []snowflake.ID{id})
	if err != nil {
		return nil, err
	}
	p, ok := participants[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return p, nil
}

func (s *Service) GetParticipants(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Participant, error) {
	return s.loadParticipants(ctx, s.db, ids)
}

func (s *Service) GetActiveParticipant(ctx context.Context, id snowflake.ID) (domain.Participant, error) {
	p, err := s.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted() {
		return nil, domain.ErrUserNotFound
	}
	return p, nil
}

func (s *Service) GetActiveResume(ctx context.Context, id snowflake.ID) (*domain.Resume, error) {
	if id == 0 {
		return nil, domain.ErrResumeNotFound
	}
	resume, err := s.repo.FindResume(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if resume == nil || resume.DeletedAt != nil {
		return nil, domain.ErrResumeNotFound
	}
	return resume, nil
}

func (s *Service) RecalculateStage(ctx context.Context, id snowflake.ID) (domain.Stage, error) {
	if id == 0 {
		return "", domain.ErrInvalidID
	}
	return s.recalculate(ctx, s.db, id)
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidID
	}

	var (
		user      *domain.User
		cancelled int64
	)
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.repo.FindUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if user.IsDeleted() {
			return domain.ErrAlreadyDeleted
		}

		affected, err := s.repo.SoftDeleteUser(ctx, tx, id, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrAlreadyDeleted
		}
		if err := s.repo.SoftDeleteDependents(ctx, tx, id, now); err != nil {
			return err
		}
		cancelled, err = s.repo.CancelOpenInvitations(ctx, tx, id, now)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("account soft-deleted",
		zap.String("user_id", id.String()),
		zap.String("role", string(user.Role)),
		zap.Int64("cancelled_invitations", cancelled),
	)
	events.Emit(ctx, s.publisher, s.log, events.TopicAccountDeleted, events.AccountEvent{
		UserID: id,
		Role:   string(user.Role),
	})
	return nil
}

// Restore undeletes the account and every dependent row whose deletion time
// falls inside the restore window around the account's deletion time. The
// window is a heuristic for "deleted together with the account"; rows the
// user removed on their own shortly before or after can be restored too.
func (s *Service) Restore(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidID
	}

	window := s.policy.Get().RestoreWindow
	var user *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.repo.FindUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if !user.IsDeleted() {
			return domain.ErrNotDeleted
		}

		deletedAt := *user.DeletedAt
		if err := s.repo.RestoreUser(ctx, tx, id, s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.RestoreDependents(ctx, tx, id, deletedAt.Add(-window), deletedAt.Add(window)); err != nil {
			return err
		}
		_, err = s.recalculate(ctx, tx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("account restored", zap.String("user_id", id.String()), zap.Duration("window", window))
	events.Emit(ctx, s.publisher, s.log, events.TopicAccountRestored, events.AccountEvent{
		UserID: id,
		Role:   string(user.Role),
	})
	return nil
}

func (s *Service) recalculate(ctx context.Context, db *gorm.DB, id snowflake.ID) (domain.Stage, error) {
	snap, err := s.loadSnapshot(ctx, db, id)
	if err != nil {
		return "", err
	}
	previous := snap.User.Stage
	s.engine.Recalculate(snap)
	if snap.User.Stage == previous {
		return previous, nil
	}

	if err := s.repo.UpdateStage(ctx, db, id, snap.User.Stage, s.clock.Now()); err != nil {
		return "", err
	}
	s.log.Info("registration stage changed",
		zap.String("user_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(snap.User.Stage)),
	)
	return snap.User.Stage, nil
}

func (s *Service) loadSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Snapshot, error) {
	user, err := s.repo.FindUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	snap := &domain.Snapshot{User: user}
	ids := []snowflake.ID{id}
	switch user.Role {
	case domain.RoleStudent:
		profiles, err := s.repo.FindStudentProfiles(ctx, db, ids)
		if err != nil {
			return nil, err
		}
		if len(profiles) > 0 {
			snap.Student = &profiles[0]
		}
		if snap.StudyPlans, err = s.repo.ListStudyPlans(ctx, db, id); err != nil {
			return nil, err
		}
		if snap.Resumes, err = s.repo.ListResumes(ctx, db, id); err != nil {
			return nil, err
		}
	case domain.RoleEmployer:
		profiles, err := s.repo.FindEmployerProfiles(ctx, db, ids)
		if err != nil {
			return nil, err
		}
		if len(profiles) > 0 {
			snap.Employer = &profiles[0]
		}
	}
	return snap, nil
}

func (s *Service) loadParticipants(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]domain.Participant, error) {
	out := make(map[snowflake.ID]domain.Participant, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	users, err := s.repo.FindUsers(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	var studentIDs, employerIDs []snowflake.ID
	for _, u := range users {
		switch u.Role {
		case domain.RoleStudent:
			studentIDs = append(studentIDs, u.ID)
		case domain.RoleEmployer:
			employerIDs = append(employerIDs, u.ID)
		}
	}

	students, err := s.repo.FindStudentProfiles(ctx, db, studentIDs)
	if err != nil {
		return nil, err
	}
	employers, err := s.repo.FindEmployerProfiles(ctx, db, employerIDs)
	if err != nil {
		return nil, err
	}

	studentByID := make(map[snowflake.ID]*domain.StudentProfile, len(students))
	for i := range students {
		studentByID[students[i].UserID] = &students[i]
	}
	employerByID := make(map[snowflake.ID]*domain.EmployerProfile, len(employers))
	for i := range employers {
		employerByID[employers[i].UserID] = &employers[i]
	}

	for _, u := range users {
		out[u.ID] = domain.NewParticipant(u, studentByID[u.ID], employerByID[u.ID])
	}
	return out, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
