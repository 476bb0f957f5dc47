package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	blacklistdomain "github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/internal/chat/domain"
	"github.com/smallbiznis/internlink/internal/clock"
	"github.com/smallbiznis/internlink/internal/config"
	"github.com/smallbiznis/internlink/internal/events"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
	"github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/ratelimit"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/pkg/db"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Accounts    accountdomain.Service
	Blacklist   blacklistdomain.Service
	Invitations invitationdomain.Service
	Gate        *registration.Gate
	Policy      *config.PolicyHolder
	Clock       clock.Clock
	Limiter     *ratelimit.MessageLimiter `optional:"true"`
	Metrics     *metrics.Metrics          `optional:"true"`
	Publisher   events.Publisher          `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	accounts    accountdomain.Service
	blacklist   blacklistdomain.Service
	invitations invitationdomain.Service
	gate        *registration.Gate
	policy      *config.PolicyHolder
	clock       clock.Clock
	limiter     domain.RateLimiter
	metrics     *metrics.Metrics
	publisher   events.Publisher
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	svc := &Service{
		db:          p.DB,
		log:         p.Log.Named("chat.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		accounts:    p.Accounts,
		blacklist:   p.Blacklist,
		invitations: p.Invitations,
		gate:        p.Gate,
		policy:      p.Policy,
		clock:       clk,
		metrics:     p.Metrics,
		publisher:   p.Publisher,
	}
	if p.Limiter != nil {
		svc.limiter = p.Limiter
	}
	return svc
}

func (s *Service) GetOrCreateChat(ctx context.Context, a, b snowflake.ID) (*domain.Chat, error) {
	if a == 0 || b == 0 {
		return nil, domain.ErrInvalidID
	}
	if a == b {
		return nil, domain.ErrSelfMessage
	}

	var chat *domain.Chat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		chat, err = s.resolveChat(ctx, tx, a, b, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// resolveChat finds the chat for the pair and bumps its last_message_at to
// at, or creates it. A concurrent create surfaces as a unique violation,
// after which the winner's row is re-read and bumped. The insert runs in a
// nested transaction so the savepoint keeps an outer postgres transaction
// usable after the violation.
func (s *Service) resolveChat(ctx context.Context, tx *gorm.DB, a, b snowflake.ID, at time.Time) (*domain.Chat, error) {
	user1, user2 := domain.CanonicalPair(a, b)

	chat, err := s.repo.FindChatByPair(ctx, tx, user1, user2)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return s.touch(ctx, tx, chat, at)
	}

	chat = &domain.Chat{
		ID:            s.genID.Generate(),
		User1ID:       user1,
		User2ID:       user2,
		CreatedAt:     at,
		LastMessageAt: at,
	}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return s.repo.InsertChat(ctx, sp, chat)
	})
	if err == nil {
		return chat, nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return nil, err
	}

	existing, err := s.repo.FindChatByPair(ctx, tx, user1, user2)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrChatNotFound
	}
	return s.touch(ctx, tx, existing, at)
}

func (s *Service) touch(ctx context.Context, tx *gorm.DB, chat *domain.Chat, at time.Time) (*domain.Chat, error) {
	if err := s.repo.TouchChat(ctx, tx, chat.ID, at); err != nil {
		return nil, err
	}
	if at.After(chat.LastMessageAt) {
		chat.LastMessageAt = at
	}
	return chat, nil
}

func (s *Service) SendMessage(ctx context.Context, senderID snowflake.ID, req domain.SendMessageRequest) (*domain.Message, error) {
	if senderID == 0 || req.ReceiverID == 0 {
		return nil, domain.ErrInvalidID
	}
	if senderID == req.ReceiverID {
		return nil, domain.ErrSelfMessage
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > s.policy.Get().MaxMessageLength {
		return nil, domain.ErrMessageTooLong
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, senderID); err != nil {
			return nil, err
		}
	}

	sender, receiver, err := s.loadPair(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, sender, receiver); err != nil {
		return nil, err
	}

	invitationID := req.InvitationID
	if invitationID != nil && *invitationID == 0 {
		invitationID = nil
	}
	if invitationID != nil {
		if err := s.ensureInvitationBetween(ctx, *invitationID, senderID, req.ReceiverID); err != nil {
			return nil, err
		}
	}

	var msg *domain.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		chat, err := s.resolveChat(ctx, tx, senderID, req.ReceiverID, now)
		if err != nil {
			return err
		}

		msg = &domain.Message{
			ID:           s.genID.Generate(),
			ChatID:       chat.ID,
			SenderID:     senderID,
			Content:      content,
			SentAt:       now,
			InvitationID: invitationID,
		}
		return s.repo.InsertMessage(ctx, tx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("message sent",
		zap.String("message_id", msg.ID.String()),
		zap.String("chat_id", msg.ChatID.String()),
		zap.String("sender_id", senderID.String()),
	)
	s.metrics.RecordMessageSent(ctx, string(sender.Role()))
	events.Emit(ctx, s.publisher, s.log, events.TopicMessageSent, events.MessageEvent{
		MessageID:    msg.ID,
		ChatID:       msg.ChatID,
		SenderID:     senderID,
		ReceiverID:   req.ReceiverID,
		InvitationID: invitationID,
	})
	return msg, nil
}

// loadPair resolves both parties. A deleted account is reachable only by an
// administrator.
func (s *Service) loadPair(ctx context.Context, senderID, receiverID snowflake.ID) (accountdomain.Participant, accountdomain.Participant, error) {
	participants, err := s.accounts.GetParticipants(ctx, []snowflake.ID{senderID, receiverID})
	if err != nil {
		return nil, nil, err
	}
	sender, ok := participants[senderID]
	if !ok {
		return nil, nil, accountdomain.ErrUserNotFound
	}
	receiver, ok := participants[receiverID]
	if !ok {
		return nil, nil, accountdomain.ErrUserNotFound
	}
	if sender.IsDeleted() && receiver.Role() != accountdomain.RoleAdministrator {
		return nil, nil, accountdomain.ErrUserNotFound
	}
	if receiver.IsDeleted() && sender.Role() != accountdomain.RoleAdministrator {
		return nil, nil, accountdomain.ErrUserNotFound
	}
	return sender, receiver, nil
}

func (s *Service) authorize(ctx context.Context, sender, receiver accountdomain.Participant) error {
	if sender.Role() == accountdomain.RoleAdministrator || receiver.Role() == accountdomain.RoleAdministrator {
		return nil
	}
	if sender.Role() == receiver.Role() {
		return domain.ErrSameRole
	}
	if err := s.gate.Check(sender.Role(), sender.Stage(), registration.ActionSendMessage); err != nil {
		s.metrics.RecordPermissionDenied(ctx, string(sender.Role()), string(registration.ActionSendMessage))
		return err
	}
	if !s.gate.IsAllowed(receiver.Role(), receiver.Stage(), registration.ActionSendMessage) {
		return domain.ErrReceiverUnavailable
	}
	return s.blacklist.EnsureCommunicationAllowed(ctx, sender.ID(), receiver.ID())
}

func (s *Service) ensureInvitationBetween(ctx context.Context, invitationID, senderID, receiverID snowflake.ID) error {
	inv, err := s.invitations.Get(ctx, senderID, invitationID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return domain.ErrInvitationNotFound
		}
		return err
	}
	if !inv.IsParty(receiverID) {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (s *Service) MarkRead(ctx context.Context, userID, chatID snowflake.ID) (int64, error) {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, s.db, chatID, userID)
}

func (s *Service) GetChatsForUser(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.ChatSummary], error) {
	if userID == 0 {
		return pagination.Result[domain.ChatSummary]{}, domain.ErrInvalidID
	}

	chats, err := s.repo.ListChatsForUser(ctx, s.db, userID, page)
	if err != nil {
		return pagination.Result[domain.ChatSummary]{}, err
	}

	chatIDs := make([]snowflake.ID, 0, len(chats.Data))
	counterpartIDs := make([]snowflake.ID, 0, len(chats.Data))
	for _, chat := range chats.Data {
		chatIDs = append(chatIDs, chat.ID)
		counterpartIDs = append(counterpartIDs, chat.Counterpart(userID))
	}

	participants, err := s.accounts.GetParticipants(ctx, counterpartIDs)
	if err != nil {
		return pagination.Result[domain.ChatSummary]{}, err
	}
	lastMessages, err := s.repo.LastMessages(ctx, s.db, chatIDs)
	if err != nil {
		return pagination.Result[domain.ChatSummary]{}, err
	}
	unread, err := s.repo.UnreadCounts(ctx, s.db, chatIDs, userID)
	if err != nil {
		return pagination.Result[domain.ChatSummary]{}, err
	}

	summaries := make([]domain.ChatSummary, 0, len(chats.Data))
	for _, chat := range chats.Data {
		counterpartID := chat.Counterpart(userID)
		summary := domain.ChatSummary{
			Chat:        chat,
			Counterpart: domain.ParticipantDisplay{ID: counterpartID, DisplayName: accountdomain.DeletedAccountDisplayName},
			UnreadCount: unread[chat.ID],
		}
		if p, ok := participants[counterpartID]; ok {
			summary.Counterpart = domain.DisplayOf(p)
		}
		if msg, ok := lastMessages[chat.ID]; ok {
			msg := msg
			summary.LastMessage = &msg
		}
		summaries = append(summaries, summary)
	}

	return pagination.Result[domain.ChatSummary]{Data: summaries, Meta: chats.Meta}, nil
}

func (s *Service) GetMessages(ctx context.Context, chatID, actorID snowflake.ID, page pagination.Request) (pagination.Result[domain.Message], error) {
	if _, err := s.participantChat(ctx, chatID, actorID); err != nil {
		return pagination.Result[domain.Message]{}, err
	}
	return s.repo.ListMessages(ctx, s.db, chatID, page)
}

func (s *Service) ResolveParticipantDisplay(ctx context.Context, userID snowflake.ID) (domain.ParticipantDisplay, error) {
	if userID == 0 {
		return domain.ParticipantDisplay{}, domain.ErrInvalidID
	}
	p, err := s.accounts.GetParticipant(ctx, userID)
	if err != nil {
		return domain.ParticipantDisplay{}, err
	}
	return domain.DisplayOf(p), nil
}

func (s *Service) participantChat(ctx context.Context, chatID, userID snowflake.ID) (*domain.Chat, error) {
	if chatID == 0 || userID == 0 {
		return nil, domain.ErrInvalidID
	}
	chat, err := s.repo.FindChatByID(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.IsParticipant(userID) {
		return nil, domain.ErrChatNotFound
	}
	return chat, nil
}
