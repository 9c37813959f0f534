// Package console runs the dialog against a terminal for local testing.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

// Handler turns one inbound message into one reply.
type Handler interface {
	Handle(ctx context.Context, msg domain.Message) domain.Reply
}

// Runner feeds lines from in to the handler as one user and prints replies.
type Runner struct {
	handler Handler
	user    domain.User
	in      io.Reader
	out     io.Writer
}

// NewRunner wires the loop.
func NewRunner(handler Handler, user domain.User, in io.Reader, out io.Writer) *Runner {
	return &Runner{handler: handler, user: user, in: in, out: out}
}

// Run sends /start first, then each input line, until EOF or cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.turn(ctx, "/start"); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r.in)
	for {
		if _, err := fmt.Fprint(r.out, "> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := r.turn(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (r *Runner) turn(ctx context.Context, text string) error {
	reply := r.handler.Handle(ctx, domain.Message{ChatID: r.user.ID, User: r.user, Text: text})
	_, err := io.WriteString(r.out, Render(reply)+"\n")
	return err
}

// Render formats a reply as plain text with the keyboard underneath.
func Render(reply domain.Reply) string {
	var b strings.Builder
	b.WriteString(PlainText(reply.Text))
	if len(reply.Keyboard) > 0 {
		b.WriteString("\n")
		for _, row := range reply.Keyboard {
			b.WriteString("\n")
			for i, label := range row {
				if i > 0 {
					b.WriteString(" ")
				}
				b.WriteString("[" + label + "]")
			}
		}
	}
	return b.String()
}

// PlainText strips HTML markup and decodes entities.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// OfflineInviter fabricates invite links when no bot token is configured.
type OfflineInviter struct{}

var _ ports.Inviter = OfflineInviter{}

func (OfflineInviter) CreateSingleUseInvite(_ context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", fmt.Errorf("offline invite: empty group id")
	}
	return "https://t.me/+offline" + uuid.NewString()[:8], nil
}

// LogNotifier prints admin notifications to the console output.
type LogNotifier struct {
	Out io.Writer
}

var _ ports.AdminNotifier = LogNotifier{}

func (n LogNotifier) NotifyAdmin(_ context.Context, text string) error {
	if n.Out == nil {
		return fmt.Errorf("log notifier: no output")
	}
	_, err := fmt.Fprintf(n.Out, "[admin] %s\n", PlainText(text))
	return err
}
