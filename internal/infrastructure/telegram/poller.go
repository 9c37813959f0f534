package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"InterestBot/internal/domain"
)

// Update is the subset of a Bot API update the bot consumes.
type Update struct {
	UpdateID int64       `json:"update_id"`
	Message  *apiMessage `json:"message"`
}

type apiMessage struct {
	MessageID int64    `json:"message_id"`
	From      *apiUser `json:"from"`
	Chat      apiChat  `json:"chat"`
	Text      string   `json:"text"`
}

type apiUser struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

type apiChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	form.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// toMessage converts a private text message; other updates are ignored.
func toMessage(u Update) (domain.Message, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot || m.Text == "" {
		return domain.Message{}, false
	}
	if m.Chat.Type != "" && m.Chat.Type != "private" {
		return domain.Message{}, false
	}
	return domain.Message{
		ChatID: m.Chat.ID,
		User: domain.User{
			ID:        m.From.ID,
			Username:  m.From.Username,
			FirstName: m.From.FirstName,
			Language:  m.From.LanguageCode,
		},
		Text: m.Text,
	}, true
}

// Handler turns one inbound message into one reply.
type Handler interface {
	Handle(ctx context.Context, msg domain.Message) domain.Reply
}

// PollerOptions tune the long-polling loop.
type PollerOptions struct {
	Workers     int
	PollTimeout time.Duration
	RetryDelay  time.Duration
	QueueSize   int
}

// Poller fetches updates and dispatches them to a fixed set of workers. A user
// is always routed to the same worker, so their messages are handled in order
// while different users proceed concurrently.
type Poller struct {
	client  *Client
	handler Handler
	logger  *slog.Logger
	opts    PollerOptions
}

// NewPoller wires the loop.
func NewPoller(client *Client, handler Handler, opts PollerOptions, logger *slog.Logger) *Poller {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, handler: handler, logger: logger, opts: opts}
}

// Run polls until ctx is cancelled, then drains queued messages.
func (p *Poller) Run(ctx context.Context) error {
	queues := make([]chan domain.Message, p.opts.Workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan domain.Message, p.opts.QueueSize)
		wg.Add(1)
		go func(in <-chan domain.Message) {
			defer wg.Done()
			for msg := range in {
				p.process(context.WithoutCancel(ctx), msg)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	p.logger.Info("telegram polling started", "workers", p.opts.Workers)

	var offset int64
	for {
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return nil
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			p.logger.Warn("get updates failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(p.opts.RetryDelay):
			}
			continue
		}

	dispatch:
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			msg, ok := toMessage(u)
			if !ok {
				continue
			}
			select {
			case queues[shard(msg.User.ID, len(queues))] <- msg:
			case <-ctx.Done():
				p.logger.Warn("shutdown with full queue, dropping update", "update_id", u.UpdateID, "user_id", msg.User.ID)
				break dispatch
			}
		}
	}
}

func (p *Poller) process(ctx context.Context, msg domain.Message) {
	logger := p.logger.With("correlation_id", uuid.NewString(), "user_id", msg.User.ID)
	started := time.Now()

	reply := p.handler.Handle(ctx, msg)
	if err := p.client.Send(ctx, msg.ChatID, reply); err != nil {
		logger.Error("send reply failed", "chat_id", msg.ChatID, "error", err)
		return
	}
	logger.Debug("update handled", "elapsed", time.Since(started))
}

func shard(userID int64, n int) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(n))
}
