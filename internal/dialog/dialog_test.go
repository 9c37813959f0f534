package dialog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"InterestBot/internal/catalog"
	"InterestBot/internal/domain"
)

type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]domain.User
	memberships map[int64]map[string]bool
	counts      map[string]int
	interests   []domain.InterestRecord
	support     []domain.SupportMessage
	knownTopics map[string]bool
	supportErr  error
}

func newFakeStore(cat *catalog.Catalog) *fakeStore {
	known := map[string]bool{}
	for _, t := range cat.All() {
		known[t.Name] = true
	}
	return &fakeStore{
		users:       map[int64]domain.User{},
		memberships: map[int64]map[string]bool{},
		counts:      map[string]int{},
		knownTopics: known,
	}
}

func (f *fakeStore) UpsertUser(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID int64) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return domain.Profile{User: u, GroupCount: len(f.memberships[userID])}, nil
}

func (f *fakeStore) ListUserTopics(_ context.Context, userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name := range f.memberships[userID] {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeStore) RecordMembership(_ context.Context, userID int64, topic string) (domain.MembershipResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.knownTopics[topic] {
		return 0, fmt.Errorf("record membership: %w", domain.ErrTopicNotFound)
	}
	if f.memberships[userID] == nil {
		f.memberships[userID] = map[string]bool{}
	}
	if f.memberships[userID][topic] {
		return domain.MembershipAlreadyMember, nil
	}
	f.memberships[userID][topic] = true
	return domain.MembershipJoined, nil
}

func (f *fakeStore) IncrementMemberCount(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[topic]++
	return nil
}

func (f *fakeStore) AppendInterest(_ context.Context, record domain.InterestRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interests = append(f.interests, record)
	return nil
}

func (f *fakeStore) AppendSupport(_ context.Context, msg domain.SupportMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.supportErr != nil {
		return 0, f.supportErr
	}
	f.support = append(f.support, msg)
	return int64(len(f.support)), nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[int64]domain.Session
}

func (m *memSessions) Load(_ context.Context, userID int64) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	return domain.NewSession(userID), nil
}

func (m *memSessions) Save(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[int64]domain.Session{}
	}
	m.sessions[s.UserID] = s
	return nil
}

func (m *memSessions) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memSessions) get(userID int64) domain.Session {
	s, _ := m.Load(context.Background(), userID)
	return s
}

type fakeInviter struct {
	mu    sync.Mutex
	calls int
	link  string
	err   error
}

func (f *fakeInviter) CreateSingleUseInvite(_ context.Context, groupID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.link != "" {
		return f.link, nil
	}
	return "https://t.me/+invite" + strings.TrimPrefix(groupID, "-"), nil
}

type fakeNotifier struct {
	texts []string
	err   error
}

func (f *fakeNotifier) NotifyAdmin(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

// stubMatcher answers from a fixed table keyed by query.
type stubMatcher struct {
	cat     *catalog.Catalog
	answers map[string]string
}

func (m stubMatcher) Match(query string) domain.MatchResult {
	name, ok := m.answers[query]
	if !ok {
		return domain.NoMatch(domain.ReasonNone)
	}
	t, _ := m.cat.Lookup(name)
	return domain.MatchResult{Topic: &t, Score: 0.5, Reason: domain.ReasonKeywordOverlap}
}

type harness struct {
	svc      *Service
	cat      *catalog.Catalog
	store    *fakeStore
	sessions *memSessions
	inviter  *fakeInviter
	notifier *fakeNotifier
	logs     *bytes.Buffer
	user     domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cat, err := catalog.New("ru", []domain.Topic{
		{Name: "Путешествия", Keywords: []string{"путешествие", "туризм"}, Description: "Поездки и маршруты.", Glyph: "✈️", GroupID: "-100"},
		{Name: "Кулинария", Keywords: []string{"рецепт", "кухня"}, Description: "Готовим вместе.", Glyph: "🍳", GroupID: "-200"},
		{Name: "Спорт", Keywords: []string{"тренировка"}, Description: "Бег и зал.", Glyph: "⚽", GroupID: "-300"},
	}, nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	h := &harness{
		cat:      cat,
		store:    newFakeStore(cat),
		sessions: &memSessions{},
		inviter:  &fakeInviter{},
		notifier: &fakeNotifier{},
		logs:     &bytes.Buffer{},
		user:     domain.User{ID: 42, Username: "anna", FirstName: "Анна", Language: "ru"},
	}
	h.svc, err = New(Deps{
		Catalog:  cat,
		Matcher:  stubMatcher{cat: cat, answers: map[string]string{"хочу путешествовать": "Путешествия"}},
		Store:    h.store,
		Sessions: h.sessions,
		Inviter:  h.inviter,
		Notifier: h.notifier,
		Logger:   slog.New(slog.NewTextHandler(h.logs, nil)),
		Now:      func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func (h *harness) send(t *testing.T, text string) domain.Reply {
	t.Helper()
	reply := h.svc.Handle(context.Background(), domain.Message{ChatID: h.user.ID, User: h.user, Text: text})
	if reply.Text == "" {
		t.Fatalf("empty reply for %q", text)
	}
	return reply
}

func (h *harness) state() domain.State {
	return h.sessions.get(h.user.ID).State
}

func (h *harness) expectState(t *testing.T, want domain.State) {
	t.Helper()
	if got := h.state(); got != want {
		t.Fatalf("state = %s, want %s", got, want)
	}
}

func TestNewRequiresCoreDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestStartRegistersUserAndShowsMenu(t *testing.T) {
	h := newHarness(t)

	reply := h.send(t, "/start")
	h.expectState(t, domain.StateMainMenu)
	if _, ok := h.store.users[h.user.ID]; !ok {
		t.Fatal("user was not upserted")
	}
	if !strings.Contains(reply.Text, "Анна") || len(reply.Keyboard) == 0 {
		t.Fatalf("unexpected welcome: %+v", reply)
	}
}

func TestNoMatchLogsNewInterestAndOffersTopics(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelSearch)
	h.expectState(t, domain.StateAskTopic)

	reply := h.send(t, "абракадабра нечтонепонятное")
	h.expectState(t, domain.StateChooseTopic)

	if len(h.store.interests) != 2 {
		t.Fatalf("interest records = %d, want 2", len(h.store.interests))
	}
	first, second := h.store.interests[0], h.store.interests[1]
	if first.TopicLabel != "абракадабра нечтонепонятное" || first.Status != domain.InterestPending {
		t.Fatalf("first record = %+v", first)
	}
	if second.TopicLabel != domain.NewInterestLabel || second.QueryText != "абракадабра нечтонепонятное" {
		t.Fatalf("second record = %+v", second)
	}
	if len(reply.Keyboard) != 3 {
		t.Fatalf("keyboard rows = %d, want 3", len(reply.Keyboard))
	}
}

func TestMatchProposesTopic(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelSearch)
	reply := h.send(t, "хочу путешествовать")

	h.expectState(t, domain.StateJoinDecision)
	if got := h.sessions.get(h.user.ID).Scratchpad; got.Topic != "Путешествия" || got.Query != "хочу путешествовать" {
		t.Fatalf("scratchpad = %+v", got)
	}
	if !strings.Contains(reply.Text, reasonText(domain.ReasonKeywordOverlap)) {
		t.Fatalf("reply lacks reason: %s", reply.Text)
	}
	if len(h.store.interests) != 1 {
		t.Fatalf("interest records = %d, want 1", len(h.store.interests))
	}
}

func TestMainMenuSessionIsDropped(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelSearch)
	if _, ok := h.sessions.sessions[h.user.ID]; !ok {
		t.Fatal("ask-topic session was not saved")
	}
	h.send(t, "/start")
	if s, ok := h.sessions.sessions[h.user.ID]; ok {
		t.Fatalf("main menu session still stored: %+v", s)
	}
	h.expectState(t, domain.StateMainMenu)
}

func TestJoinLogsOriginalQuery(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelSearch)
	h.send(t, "хочу путешествовать")
	h.send(t, LabelAccept)

	h.expectState(t, domain.StateMainMenu)
	logs := h.logs.String()
	if !strings.Contains(logs, "user joined topic") || !strings.Contains(logs, `query="хочу путешествовать"`) {
		t.Fatalf("join log lacks query:\n%s", logs)
	}
}

func TestLongQueryIsTruncatedInLabel(t *testing.T) {
	h := newHarness(t)

	query := strings.Repeat("я", 150)
	h.send(t, LabelSearch)
	h.send(t, query)

	if got := len([]rune(h.store.interests[0].TopicLabel)); got != maxLabelRunes {
		t.Fatalf("label runes = %d, want %d", got, maxLabelRunes)
	}
	if h.store.interests[0].QueryText != query {
		t.Fatal("query text should be stored in full")
	}
}

func TestJoinWithClearedScratchpad(t *testing.T) {
	h := newHarness(t)
	_ = h.sessions.Save(context.Background(), domain.Session{UserID: h.user.ID, State: domain.StateJoinDecision})

	reply := h.send(t, LabelAccept)

	h.expectState(t, domain.StateMainMenu)
	if h.inviter.calls != 0 {
		t.Fatalf("inviter called %d times", h.inviter.calls)
	}
	if reply.Text != noTopicText {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestJoinWithTopicMissingFromCatalog(t *testing.T) {
	h := newHarness(t)
	_ = h.sessions.Save(context.Background(), domain.Session{
		UserID:     h.user.ID,
		State:      domain.StateJoinDecision,
		Scratchpad: domain.Scratchpad{Topic: "Астрология"},
	})

	h.send(t, LabelAccept)

	h.expectState(t, domain.StateMainMenu)
	if h.inviter.calls != 0 {
		t.Fatalf("inviter called %d times", h.inviter.calls)
	}
}

func TestJoinWithTopicMissingFromStore(t *testing.T) {
	h := newHarness(t)
	delete(h.store.knownTopics, "Кулинария")

	h.send(t, LabelPopular)
	h.send(t, "🍳 Кулинария")
	reply := h.send(t, LabelAccept)

	h.expectState(t, domain.StateMainMenu)
	if reply.Text != configurationErrorText("Кулинария") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if h.store.counts["Кулинария"] != 0 {
		t.Fatal("member count changed")
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newHarness(t)

	var replies []domain.Reply
	for i := 0; i < 2; i++ {
		h.send(t, LabelPopular)
		h.expectState(t, domain.StateChooseTopic)
		h.send(t, "✈️ Путешествия")
		h.expectState(t, domain.StateJoinDecision)
		replies = append(replies, h.send(t, LabelAccept))
		h.expectState(t, domain.StateMainMenu)
	}

	if got := len(h.store.memberships[h.user.ID]); got != 1 {
		t.Fatalf("memberships = %d, want 1", got)
	}
	if got := h.store.counts["Путешествия"]; got != 1 {
		t.Fatalf("member count = %d, want 1", got)
	}
	if !strings.Contains(replies[0].Text, "https://t.me/+invite100") {
		t.Fatalf("first reply lacks link: %s", replies[0].Text)
	}
	if !strings.Contains(replies[1].Text, "уже состоите") {
		t.Fatalf("second reply should report existing membership: %s", replies[1].Text)
	}
}

func TestJoinInviteFailure(t *testing.T) {
	for _, tc := range []struct {
		name    string
		inviter *fakeInviter
	}{
		{name: "error", inviter: &fakeInviter{err: errors.New("not enough rights")}},
		{name: "foreign host", inviter: &fakeInviter{link: "https://example.com/join"}},
		{name: "plain http", inviter: &fakeInviter{link: "http://t.me/+abc"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.svc.inviter = tc.inviter

			h.send(t, LabelPopular)
			h.send(t, "⚽ Спорт")
			reply := h.send(t, LabelAccept)

			h.expectState(t, domain.StateMainMenu)
			if len(h.store.memberships[h.user.ID]) != 0 {
				t.Fatal("membership recorded despite invite failure")
			}
			if !strings.Contains(reply.Text, "Причина") {
				t.Fatalf("reply lacks reason: %s", reply.Text)
			}
		})
	}
}

func TestJoinWithoutInviter(t *testing.T) {
	h := newHarness(t)
	h.svc.inviter = nil

	h.send(t, LabelPopular)
	h.send(t, "⚽ Спорт")
	h.send(t, LabelAccept)

	h.expectState(t, domain.StateMainMenu)
	if len(h.store.memberships[h.user.ID]) != 0 {
		t.Fatal("membership recorded without invite")
	}
}

func TestChooseTopicRejectsUnknownLabel(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelPopular)
	reply := h.send(t, "🎸 Музыка")

	h.expectState(t, domain.StateChooseTopic)
	if len(reply.Keyboard) != 3 {
		t.Fatalf("expected topic list again, got %+v", reply.Keyboard)
	}
}

func TestJoinDecisionRepromptsOnUnknownInput(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelPopular)
	h.send(t, "✈️ Путешествия")
	reply := h.send(t, "может быть")

	h.expectState(t, domain.StateJoinDecision)
	if reply.Text != useButtonsText {
		t.Fatalf("reply = %q", reply.Text)
	}
	if got := h.sessions.get(h.user.ID).Scratchpad.Topic; got != "Путешествия" {
		t.Fatalf("scratchpad topic = %q", got)
	}
}

func TestOtherTopicsFromJoinDecision(t *testing.T) {
	h := newHarness(t)

	h.send(t, LabelPopular)
	h.send(t, "✈️ Путешествия")
	h.send(t, LabelOther)

	h.expectState(t, domain.StateChooseTopic)
	if got := h.sessions.get(h.user.ID).Scratchpad; got != (domain.Scratchpad{}) {
		t.Fatalf("scratchpad = %+v, want empty", got)
	}
}

func TestSupportDelivery(t *testing.T) {
	for _, tc := range []struct {
		name      string
		storeErr  error
		notifyErr error
		want      string
	}{
		{name: "sent", want: supportSentText},
		{name: "notify fails", notifyErr: errors.New("chat not found"), want: supportSavedText},
		{name: "both fail", storeErr: errors.New("disk full"), notifyErr: errors.New("chat not found"), want: supportFailedText},
		{name: "store fails", storeErr: errors.New("disk full"), want: supportSentText},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.supportErr = tc.storeErr
			h.notifier.err = tc.notifyErr

			h.send(t, LabelSupport)
			h.expectState(t, domain.StateSupport)
			reply := h.send(t, "Не приходит ссылка")

			h.expectState(t, domain.StateMainMenu)
			if reply.Text != tc.want {
				t.Fatalf("reply = %q, want %q", reply.Text, tc.want)
			}
			if tc.storeErr == nil && (len(h.store.support) != 1 || h.store.support[0].Status != domain.SupportNew) {
				t.Fatalf("support records = %+v", h.store.support)
			}
			if tc.notifyErr == nil && !strings.Contains(h.notifier.texts[0], "Не приходит ссылка") {
				t.Fatalf("admin text = %q", h.notifier.texts[0])
			}
			if tc.storeErr != nil && tc.notifyErr == nil {
				if admin := h.notifier.texts[0]; !strings.Contains(admin, "не сохранено") || strings.Contains(admin, "#0") {
					t.Fatalf("admin text for unsaved message = %q", admin)
				}
			}
		})
	}
}

func TestSupportCancel(t *testing.T) {
	h := newHarness(t)

	h.send(t, "/support")
	reply := h.send(t, LabelCancel)

	h.expectState(t, domain.StateMainMenu)
	if reply.Text != supportCancelledText || len(h.store.support) != 0 {
		t.Fatalf("unexpected cancel outcome: %q, %d records", reply.Text, len(h.store.support))
	}
}

func TestProfile(t *testing.T) {
	h := newHarness(t)

	if reply := h.send(t, LabelProfile); reply.Text != profileMissingText {
		t.Fatalf("reply = %q", reply.Text)
	}
	h.send(t, "/start")
	reply := h.send(t, "/profile")
	if !strings.Contains(reply.Text, "@anna") || !strings.Contains(reply.Text, "Первая группа ⏳") {
		t.Fatalf("profile = %s", reply.Text)
	}
}

func TestMyGroups(t *testing.T) {
	h := newHarness(t)

	if reply := h.send(t, LabelMyGroups); reply.Text != noGroupsText {
		t.Fatalf("reply = %q", reply.Text)
	}
	h.send(t, LabelPopular)
	h.send(t, "🍳 Кулинария")
	h.send(t, LabelAccept)

	reply := h.send(t, "/groups")
	if !strings.Contains(reply.Text, "🍳 Кулинария") {
		t.Fatalf("groups = %s", reply.Text)
	}
}

func TestCommandsApplyInEveryState(t *testing.T) {
	h := newHarness(t)

	for _, state := range domain.States() {
		_ = h.sessions.Save(context.Background(), domain.Session{
			UserID:     h.user.ID,
			State:      state,
			Scratchpad: domain.Scratchpad{Topic: "Спорт"},
		})
		h.send(t, "/start@InterestBot")
		h.expectState(t, domain.StateMainMenu)
		if got := h.sessions.get(h.user.ID).Scratchpad; got != (domain.Scratchpad{}) {
			t.Fatalf("from %s: scratchpad not cleared: %+v", state, got)
		}
	}
}

func TestEveryStateAndInputEndsInDefinedState(t *testing.T) {
	inputs := []string{
		"", "   ", "/start", "/help", "/profile", "/groups", "/support", "/unknown",
		LabelSearch, LabelMyGroups, LabelProfile, LabelPopular, LabelHelp, LabelSupport,
		LabelAccept, LabelDecline, LabelOther, LabelBack, LabelMenu, LabelCancel,
		"привет", "Пока", "✈️ Путешествия", "хочу путешествовать", "абракадабра",
	}
	valid := map[domain.State]bool{}
	for _, s := range domain.States() {
		valid[s] = true
	}

	for _, state := range domain.States() {
		for _, input := range inputs {
			h := newHarness(t)
			_ = h.sessions.Save(context.Background(), domain.Session{
				UserID:     h.user.ID,
				State:      state,
				Scratchpad: domain.Scratchpad{Topic: "Путешествия"},
			})

			reply := h.svc.Handle(context.Background(), domain.Message{ChatID: 1, User: h.user, Text: input})
			if reply.Text == "" {
				t.Fatalf("%s + %q: empty reply", state, input)
			}
			if got := h.state(); !valid[got] {
				t.Fatalf("%s + %q: undefined state %d", state, input, int(got))
			}
		}
	}
}

func TestUnknownStoredStateResets(t *testing.T) {
	h := newHarness(t)
	_ = h.sessions.Save(context.Background(), domain.Session{UserID: h.user.ID, State: domain.State(99)})

	h.send(t, "что-нибудь")
	h.expectState(t, domain.StateMainMenu)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		state domain.State
		text  string
		want  Trigger
	}{
		{domain.StateMainMenu, LabelSearch, TriggerSearch},
		{domain.StateMainMenu, "Привет!", TriggerStart},
		{domain.StateMainMenu, "до свидания", TriggerGoodbye},
		{domain.StateMainMenu, "/foo", TriggerUnknownCommand},
		{domain.StateMainMenu, "гитара", TriggerText},
		{domain.StateAskTopic, LabelHelp, TriggerText},
		{domain.StateAskTopic, "/help", TriggerHelp},
		{domain.StateAskTopic, "", TriggerUnknown},
		{domain.StateChooseTopic, LabelBack, TriggerBack},
		{domain.StateChooseTopic, "🍳 Кулинария", TriggerText},
		{domain.StateJoinDecision, LabelAccept, TriggerAccept},
		{domain.StateJoinDecision, LabelOther, TriggerOther},
		{domain.StateJoinDecision, "да", TriggerUnknown},
		{domain.StateSupport, LabelCancel, TriggerCancel},
		{domain.StateSupport, "помогите", TriggerText},
		{domain.StateSupport, "/START now", TriggerStart},
	}
	for _, tc := range cases {
		if got := Classify(tc.state, tc.text); got != tc.want {
			t.Errorf("Classify(%s, %q) = %s, want %s", tc.state, tc.text, got, tc.want)
		}
	}
}

func TestValidateInvite(t *testing.T) {
	cases := map[string]bool{
		"https://t.me/+AbCdEf":           true,
		"https://telegram.me/joinchat/x": true,
		"https://T.ME/+x":                true,
		"https://t.me/":                  false,
		"http://t.me/+x":                 false,
		"https://t.me.evil.com/+x":       false,
		"not a url at all":               false,
		"":                               false,
	}
	for link, ok := range cases {
		err := validateInvite(link)
		if (err == nil) != ok {
			t.Errorf("validateInvite(%q) = %v, want ok=%v", link, err, ok)
		}
		if err != nil && !errors.Is(err, domain.ErrInviteRejected) {
			t.Errorf("validateInvite(%q) error %v does not wrap ErrInviteRejected", link, err)
		}
	}
}

func TestConcurrentUsers(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			user := domain.User{ID: id, FirstName: "u"}
			for _, text := range []string{"/start", LabelPopular, "⚽ Спорт", LabelAccept} {
				h.svc.Handle(context.Background(), domain.Message{ChatID: id, User: user, Text: text})
			}
		}(int64(i))
	}
	wg.Wait()

	if got := h.store.counts["Спорт"]; got != 20 {
		t.Fatalf("member count = %d, want 20", got)
	}
	if n := h.svc.locks.size(); n != 0 {
		t.Fatalf("locks left: %d", n)
	}
}
