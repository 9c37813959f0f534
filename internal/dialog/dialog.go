// Package dialog drives the per-user conversation: it classifies each inbound
// text for the session's current state, runs the matching transition and
// persists the resulting session. Every path ends in a reply and a defined state.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"InterestBot/internal/catalog"
	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

const (
	maxLabelRunes = 100
	maxQueryRunes = 500
)

// Matcher routes a free-text query to a cataloged topic.
type Matcher interface {
	Match(query string) domain.MatchResult
}

// Deps wires the collaborators of the state machine. Inviter and Notifier may
// be nil; their operations then fail softly.
type Deps struct {
	Catalog  *catalog.Catalog
	Matcher  Matcher
	Store    ports.Store
	Sessions ports.SessionStore
	Inviter  ports.Inviter
	Notifier ports.AdminNotifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service is the conversation state machine. Safe for concurrent use; turns
// of the same user are serialized.
type Service struct {
	catalog  *catalog.Catalog
	matcher  Matcher
	store    ports.Store
	sessions ports.SessionStore
	inviter  ports.Inviter
	notifier ports.AdminNotifier
	logger   *slog.Logger
	now      func() time.Time

	locks userLocks
}

// New constructs the state machine.
func New(deps Deps) (*Service, error) {
	if deps.Catalog == nil || deps.Matcher == nil || deps.Store == nil || deps.Sessions == nil {
		return nil, errors.New("dialog: catalog, matcher, store and sessions are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		catalog:  deps.Catalog,
		matcher:  deps.Matcher,
		store:    deps.Store,
		sessions: deps.Sessions,
		inviter:  deps.Inviter,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      deps.Now,
	}, nil
}

// Handle processes one inbound message and returns exactly one reply.
func (s *Service) Handle(ctx context.Context, msg domain.Message) domain.Reply {
	userID := msg.User.ID
	unlock := s.locks.lock(userID)
	defer unlock()

	session, err := s.sessions.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("load session failed, starting fresh", "user_id", userID, "error", err)
		session = domain.NewSession(userID)
	}
	if _, err := session.State.MarshalText(); err != nil {
		s.logger.Warn("session in unknown state, resetting", "user_id", userID, "state", int(session.State))
		session.Reset()
	}

	trigger := Classify(session.State, msg.Text)
	from := session.State
	t := &turn{msg: msg, session: &session}
	reply := s.dispatch(ctx, t, trigger)

	s.logger.Debug("dialog turn", "user_id", userID, "from", from.String(), "trigger", trigger.String(), "to", session.State.String())

	if err := s.persist(ctx, session); err != nil {
		s.logger.Error("save session failed", "user_id", userID, "error", err)
	}
	return reply
}

// persist drops sessions that are back at a clean main menu, which is what
// Load returns for an unknown user anyway.
func (s *Service) persist(ctx context.Context, session domain.Session) error {
	if session == domain.NewSession(session.UserID) {
		return s.sessions.Delete(ctx, session.UserID)
	}
	return s.sessions.Save(ctx, session)
}

func (s *Service) dispatch(ctx context.Context, t *turn, trigger Trigger) (reply domain.Reply) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dialog handler panicked", "user_id", t.msg.User.ID, "trigger", trigger.String(), "panic", r)
			t.session.Reset()
			reply = menuReply(backToMenuText)
		}
	}()
	return lookup(t.session.State, trigger)(s, ctx, t)
}

func (s *Service) start(ctx context.Context, t *turn) domain.Reply {
	t.session.Reset()
	if err := s.store.UpsertUser(ctx, t.msg.User); err != nil {
		s.logger.Error("upsert user failed", "user_id", t.msg.User.ID, "error", err)
	}
	return menuReply(welcomeText(t.msg.User))
}

func (s *Service) goodbye(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(goodbyeText(t.msg.User))
}

func (s *Service) backToMenu(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(backToMenuText)
}

func (s *Service) unknownCommand(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(unknownCommandText)
}

func (s *Service) suggestSearch(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(suggestSearchText)
}

func (s *Service) help(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(helpText)
}

func (s *Service) askTopic(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	t.session.State = domain.StateAskTopic
	return domain.Reply{Text: askTopicText, RemoveKeyboard: true}
}

func (s *Service) popular(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	t.session.State = domain.StateChooseTopic
	topics := s.catalog.All()
	return domain.Reply{Text: popularText(topics), Keyboard: topicsKeyboard(topics)}
}

func (s *Service) supportPrompt(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	t.session.State = domain.StateSupport
	return domain.Reply{Text: supportPromptText, Keyboard: supportKeyboard()}
}

func (s *Service) cancelSupport(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(supportCancelledText)
}

func (s *Service) declineJoin(_ context.Context, t *turn) domain.Reply {
	t.session.Reset()
	return menuReply(declinedText)
}

func (s *Service) profile(ctx context.Context, t *turn) domain.Reply {
	t.session.Reset()
	p, err := s.store.GetProfile(ctx, t.msg.User.ID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return menuReply(profileMissingText)
	case err != nil:
		s.logger.Error("load profile failed", "user_id", t.msg.User.ID, "error", err)
		return menuReply(profileFailedText)
	}
	return menuReply(profileText(p))
}

func (s *Service) myGroups(ctx context.Context, t *turn) domain.Reply {
	t.session.Reset()
	names, err := s.store.ListUserTopics(ctx, t.msg.User.ID)
	if err != nil {
		s.logger.Error("list user topics failed", "user_id", t.msg.User.ID, "error", err)
		return menuReply(groupsFailedText)
	}
	if len(names) == 0 {
		return menuReply(noGroupsText)
	}
	return menuReply(groupsText(names, s.catalog))
}

func (s *Service) query(ctx context.Context, t *turn) domain.Reply {
	q := strings.TrimSpace(t.msg.Text)
	userID := t.msg.User.ID
	s.logInterest(ctx, userID, truncate(q, maxLabelRunes), q)

	result := s.matcher.Match(q)
	if result.Found() {
		t.session.State = domain.StateJoinDecision
		t.session.Scratchpad = domain.Scratchpad{Topic: result.Topic.Name, Query: q}
		return domain.Reply{Text: proposalText(result), Keyboard: joinKeyboard()}
	}

	s.logInterest(ctx, userID, domain.NewInterestLabel, q)
	t.session.Reset()
	t.session.State = domain.StateChooseTopic
	topics := s.catalog.All()
	return domain.Reply{Text: noMatchText(q), Keyboard: topicsKeyboard(topics)}
}

func (s *Service) logInterest(ctx context.Context, userID int64, label, query string) {
	record := domain.InterestRecord{
		UserID:     userID,
		TopicLabel: label,
		QueryText:  truncate(query, maxQueryRunes),
		CreatedAt:  s.now(),
		Status:     domain.InterestPending,
	}
	if err := s.store.AppendInterest(ctx, record); err != nil {
		s.logger.Warn("append interest failed", "user_id", userID, "label", label, "error", err)
	}
}

func (s *Service) chooseTopic(_ context.Context, t *turn) domain.Reply {
	label := strings.TrimSpace(t.msg.Text)
	topic, ok := s.catalog.LookupLabel(label)
	if !ok {
		topics := s.catalog.All()
		return domain.Reply{Text: unavailableText(label), Keyboard: topicsKeyboard(topics)}
	}
	t.session.State = domain.StateJoinDecision
	t.session.Scratchpad = domain.Scratchpad{Topic: topic.Name}
	return domain.Reply{Text: chosenText(topic), Keyboard: joinKeyboard()}
}

func (s *Service) join(ctx context.Context, t *turn) domain.Reply {
	name := t.session.Scratchpad.Topic
	query := t.session.Scratchpad.Query
	userID := t.msg.User.ID
	t.session.Reset()

	if name == "" {
		s.logger.Error("catalog and store out of sync", "user_id", userID,
			"error", &domain.ConfigurationError{Detail: "join decision without selected topic"})
		return menuReply(noTopicText)
	}

	topic, ok := s.catalog.Lookup(name)
	if !ok {
		return s.configurationError(userID, name, &domain.ConfigurationError{Topic: name, Detail: "topic is not in the catalog"})
	}
	if topic.GroupID == "" {
		return s.configurationError(userID, name, &domain.ConfigurationError{Topic: name, Detail: "topic has no group id"})
	}

	link, err := s.invite(ctx, topic.GroupID)
	if err != nil {
		s.logger.Error("create invite failed", "user_id", userID, "topic", name, "group_id", topic.GroupID, "error", err)
		return menuReply(inviteFailedText(topic, err))
	}

	res, err := s.store.RecordMembership(ctx, userID, topic.Name)
	switch {
	case errors.Is(err, domain.ErrTopicNotFound):
		return s.configurationError(userID, name, &domain.ConfigurationError{Topic: name, Detail: "topic is not in the store"})
	case err != nil:
		s.logger.Error("record membership failed", "user_id", userID, "topic", name, "error", err)
		return menuReply(storeFailedText)
	}

	if res == domain.MembershipJoined {
		if err := s.store.IncrementMemberCount(ctx, topic.Name); err != nil {
			s.logger.Error("increment member count failed", "topic", name, "error", err)
		}
	}

	s.logger.Info("user joined topic", "user_id", userID, "topic", name, "query", query, "already_member", res == domain.MembershipAlreadyMember)
	return menuReply(joinedText(topic, link, res == domain.MembershipAlreadyMember))
}

func (s *Service) configurationError(userID int64, name string, err error) domain.Reply {
	s.logger.Error("catalog and store out of sync", "user_id", userID, "topic", name, "error", err)
	return menuReply(configurationErrorText(name))
}

func (s *Service) invite(ctx context.Context, groupID string) (string, error) {
	if s.inviter == nil {
		return "", &domain.CollaboratorError{Op: "create invite", Err: errors.New("invites are not configured")}
	}
	link, err := s.inviter.CreateSingleUseInvite(ctx, groupID)
	if err != nil {
		return "", &domain.CollaboratorError{Op: "create invite", Err: err}
	}
	if err := validateInvite(link); err != nil {
		return "", &domain.CollaboratorError{Op: "create invite", Err: err}
	}
	return link, nil
}

// validateInvite accepts https links on the Telegram invite hosts only.
func validateInvite(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInviteRejected, err)
	}
	host := strings.ToLower(u.Hostname())
	if u.Scheme != "https" || (host != "t.me" && host != "telegram.me") || u.Path == "" || u.Path == "/" {
		return fmt.Errorf("%w: unexpected link %q", domain.ErrInviteRejected, link)
	}
	return nil
}

func (s *Service) supportMessage(ctx context.Context, t *turn) domain.Reply {
	text := strings.TrimSpace(t.msg.Text)
	user := t.msg.User
	t.session.Reset()
	now := s.now()

	id, storeErr := s.store.AppendSupport(ctx, domain.SupportMessage{
		UserID:    user.ID,
		Text:      text,
		CreatedAt: now,
		Status:    domain.SupportNew,
	})
	if storeErr != nil {
		s.logger.Error("append support message failed", "user_id", user.ID, "error", storeErr)
	}

	notifyErr := errors.New("admin notifications are not configured")
	if s.notifier != nil {
		notifyErr = s.notifier.NotifyAdmin(ctx, adminSupportText(user, text, id, storeErr == nil, now))
	}
	if notifyErr != nil {
		s.logger.Warn("notify admin failed", "user_id", user.ID, "support_id", id, "error", notifyErr)
	}

	switch {
	case notifyErr == nil:
		return menuReply(supportSentText)
	case storeErr == nil:
		return menuReply(supportSavedText)
	default:
		return menuReply(supportFailedText)
	}
}

func (s *Service) reprompt(_ context.Context, t *turn) domain.Reply {
	switch t.session.State {
	case domain.StateAskTopic:
		return domain.Reply{Text: askTopicText, RemoveKeyboard: true}
	case domain.StateChooseTopic:
		topics := s.catalog.All()
		return domain.Reply{Text: popularText(topics), Keyboard: topicsKeyboard(topics)}
	case domain.StateJoinDecision:
		return domain.Reply{Text: useButtonsText, Keyboard: joinKeyboard()}
	case domain.StateSupport:
		return domain.Reply{Text: supportPromptText, Keyboard: supportKeyboard()}
	default:
		t.session.Reset()
		return menuReply(unknownCommandText)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
