package ports

import (
	"context"

	"InterestBot/internal/domain"
)

// IdentityStore records users and serves their profile view.
type IdentityStore interface {
	UpsertUser(ctx context.Context, user domain.User) error
	GetProfile(ctx context.Context, userID int64) (domain.Profile, error)
}

// MembershipStore tracks which topics a user joined.
type MembershipStore interface {
	ListUserTopics(ctx context.Context, userID int64) ([]string, error)
	RecordMembership(ctx context.Context, userID int64, topic string) (domain.MembershipResult, error)
	IncrementMemberCount(ctx context.Context, topic string) error
}

// InterestLog appends search queries for future catalog planning.
type InterestLog interface {
	AppendInterest(ctx context.Context, record domain.InterestRecord) error
}

// SupportLog persists support requests and returns the record id.
type SupportLog interface {
	AppendSupport(ctx context.Context, msg domain.SupportMessage) (int64, error)
}

// Store is the full persistence surface used by the dialog.
type Store interface {
	IdentityStore
	MembershipStore
	InterestLog
	SupportLog
}

// Inviter issues a single-use invite link for an external group.
type Inviter interface {
	CreateSingleUseInvite(ctx context.Context, groupID string) (string, error)
}

// AdminNotifier forwards text to the administrative contact.
type AdminNotifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

// SessionStore keeps per-user dialog sessions. Load returns a fresh main-menu
// session when nothing is stored for the user.
type SessionStore interface {
	Load(ctx context.Context, userID int64) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, userID int64) error
}

// Sender delivers a reply to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply domain.Reply) error
}
