package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

// Repository persists users, memberships, interests and support requests.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sql     sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.Store = (*Repository)(nil)

// Open connects to the database for the dialect and applies the schema.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Repository, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dialect == DialectSQLite {
		// modernc serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	repo := NewRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewRepository wires an already opened sql.DB.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		sql:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Migrate creates missing tables.
func (r *Repository) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if r.dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SyncTopics upserts the catalog so memberships can reference topic rows.
// Member counters of existing rows are kept.
func (r *Repository) SyncTopics(ctx context.Context, topics []domain.Topic) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync topics: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range topics {
		query, args, err := r.sql.Insert("topics").
			Columns("name", "group_id", "description").
			Values(t.Name, t.GroupID, t.Description).
			Suffix("ON CONFLICT (name) DO UPDATE SET group_id = excluded.group_id, description = excluded.description").
			ToSql()
		if err != nil {
			return fmt.Errorf("build sync topic: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sync topic %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync topics: %w", err)
	}
	return nil
}

// UpsertUser records the user and refreshes last activity, keeping the
// first registration date.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	now := formatTime(r.now())
	language := user.Language
	if len(language) > 2 {
		language = language[:2]
	}

	query, args, err := r.sql.Insert("users").
		Columns("user_id", "username", "first_name", "language", "registered_at", "last_active").
		Values(user.ID, user.Username, user.FirstName, language, now, now).
		Suffix(`ON CONFLICT (user_id) DO UPDATE
			SET username = excluded.username,
			    first_name = excluded.first_name,
			    language = excluded.language,
			    last_active = excluded.last_active`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert user: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetProfile returns the user with membership and search counters.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (domain.Profile, error) {
	query, args, err := r.sql.
		Select("username", "first_name", "language", "registered_at", "last_active").
		Column(sq.Expr("(SELECT COUNT(*) FROM user_topics WHERE user_id = ?)", userID)).
		Column(sq.Expr("(SELECT COUNT(*) FROM interest_pool WHERE user_id = ? AND topic_label <> ?)", userID, domain.NewInterestLabel)).
		From("users").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build get profile: %w", err)
	}

	p := domain.Profile{User: domain.User{ID: userID}}
	var registered, active string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.User.Username, &p.User.FirstName, &p.User.Language,
		&registered, &active, &p.GroupCount, &p.InterestCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	if p.RegisteredAt, err = parseTime(registered); err != nil {
		return domain.Profile{}, fmt.Errorf("parse registered_at: %w", err)
	}
	if p.LastActive, err = parseTime(active); err != nil {
		return domain.Profile{}, fmt.Errorf("parse last_active: %w", err)
	}
	return p, nil
}

// ListUserTopics returns topic names in join order.
func (r *Repository) ListUserTopics(ctx context.Context, userID int64) ([]string, error) {
	query, args, err := r.sql.Select("t.name").
		From("user_topics ut").
		Join("topics t ON t.id = ut.topic_id").
		Where(sq.Eq{"ut.user_id": userID}).
		OrderBy("ut.joined_at", "t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list topics: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user topics: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		names = append(names, name)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return names, nil
}

// RecordMembership inserts the user/topic relation once. A repeated call
// reports MembershipAlreadyMember and changes nothing.
func (r *Repository) RecordMembership(ctx context.Context, userID int64, topic string) (domain.MembershipResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin membership: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	topicID, err := r.topicID(ctx, tx, topic)
	if err != nil {
		return 0, err
	}

	query, args, err := r.sql.Insert("user_topics").
		Columns("user_id", "topic_id", "joined_at").
		Values(userID, topicID, formatTime(r.now())).
		Suffix("ON CONFLICT (user_id, topic_id) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build membership: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("membership rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit membership: %w", err)
	}
	if affected == 0 {
		return domain.MembershipAlreadyMember, nil
	}
	return domain.MembershipJoined, nil
}

func (r *Repository) topicID(ctx context.Context, tx *sql.Tx, topic string) (int64, error) {
	query, args, err := r.sql.Select("id").From("topics").Where(sq.Eq{"name": topic}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build topic lookup: %w", err)
	}
	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("topic %q: %w", topic, domain.ErrTopicNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup topic %q: %w", topic, err)
	}
	return id, nil
}

// IncrementMemberCount bumps the counter in a single statement.
func (r *Repository) IncrementMemberCount(ctx context.Context, topic string) error {
	query, args, err := r.sql.Update("topics").
		Set("member_count", sq.Expr("member_count + 1")).
		Where(sq.Eq{"name": topic}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment member count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("topic %q: %w", topic, domain.ErrTopicNotFound)
	}
	return nil
}

// MemberCount returns the counter of one topic.
func (r *Repository) MemberCount(ctx context.Context, topic string) (int, error) {
	query, args, err := r.sql.Select("member_count").From("topics").Where(sq.Eq{"name": topic}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build member count: %w", err)
	}
	var n int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("topic %q: %w", topic, domain.ErrTopicNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("member count: %w", err)
	}
	return n, nil
}

// AppendInterest stores one search record.
func (r *Repository) AppendInterest(ctx context.Context, record domain.InterestRecord) error {
	status := record.Status
	if status == "" {
		status = domain.InterestPending
	}
	query, args, err := r.sql.Insert("interest_pool").
		Columns("user_id", "topic_label", "query_text", "created_at", "status").
		Values(record.UserID, record.TopicLabel, record.QueryText, formatTime(record.CreatedAt), string(status)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build append interest: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append interest: %w", err)
	}
	return nil
}

// AppendSupport stores a support request and returns its id.
func (r *Repository) AppendSupport(ctx context.Context, msg domain.SupportMessage) (int64, error) {
	status := msg.Status
	if status == "" {
		status = domain.SupportNew
	}
	query, args, err := r.sql.Insert("support_messages").
		Columns("user_id", "message", "created_at", "status").
		Values(msg.UserID, msg.Text, formatTime(msg.CreatedAt), string(status)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build append support: %w", err)
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("append support: %w", err)
	}
	return id, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
