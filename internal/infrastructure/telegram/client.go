package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Client is a minimal Bot API client over form-encoded POST requests.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

var (
	_ ports.Sender  = (*Client)(nil)
	_ ports.Inviter = (*Client)(nil)
)

// NewClient registers the bot token. An empty baseURL selects DefaultBaseURL.
func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, form url.Values, out any) error {
	if c.token == "" {
		return errors.New("telegram client misconfigured: empty token")
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("telegram %s: decode response (%s): %w", method, resp.Status, err)
	}
	if !body.OK {
		code := body.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Method: method, Code: code, Description: body.Description}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// redact keeps the token out of transport errors, which embed the URL.
func redact(err error, token string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}

type keyboardButton struct {
	Text string `json:"text"`
}

type replyKeyboard struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type removeKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

func replyMarkup(reply domain.Reply) (string, error) {
	var markup any
	switch {
	case len(reply.Keyboard) > 0:
		rows := make([][]keyboardButton, len(reply.Keyboard))
		for i, row := range reply.Keyboard {
			rows[i] = make([]keyboardButton, len(row))
			for j, label := range row {
				rows[i][j] = keyboardButton{Text: label}
			}
		}
		markup = replyKeyboard{Keyboard: rows, ResizeKeyboard: true}
	case reply.RemoveKeyboard:
		markup = removeKeyboard{RemoveKeyboard: true}
	default:
		return "", nil
	}
	raw, err := json.Marshal(markup)
	if err != nil {
		return "", fmt.Errorf("encode reply markup: %w", err)
	}
	return string(raw), nil
}

// Send posts an HTML message with the reply keyboard attached.
func (c *Client) Send(ctx context.Context, chatID int64, reply domain.Reply) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", reply.Text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	markup, err := replyMarkup(reply)
	if err != nil {
		return err
	}
	if markup != "" {
		form.Set("reply_markup", markup)
	}
	return c.call(ctx, "sendMessage", form, nil)
}

type inviteLink struct {
	InviteLink string `json:"invite_link"`
}

// CreateSingleUseInvite issues a link limited to one member, named by date so
// administrators can trace it.
func (c *Client) CreateSingleUseInvite(ctx context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", errors.New("telegram createChatInviteLink: empty group id")
	}
	form := url.Values{}
	form.Set("chat_id", groupID)
	form.Set("member_limit", "1")
	form.Set("name", inviteName(c.now()))

	var link inviteLink
	if err := c.call(ctx, "createChatInviteLink", form, &link); err != nil {
		return "", err
	}
	if link.InviteLink == "" {
		return "", errors.New("telegram createChatInviteLink: empty invite link")
	}
	return link.InviteLink, nil
}

// inviteName fits the 32 character limit of the Bot API.
func inviteName(at time.Time) string {
	return "bot-" + at.Format("20060102-1504") + "-" + uuid.NewString()[:8]
}

// AdminNotifier forwards text to a fixed administrator chat.
type AdminNotifier struct {
	client  *Client
	adminID int64
}

var _ ports.AdminNotifier = (*AdminNotifier)(nil)

// NewAdminNotifier binds the administrator chat id.
func NewAdminNotifier(client *Client, adminID int64) *AdminNotifier {
	return &AdminNotifier{client: client, adminID: adminID}
}

func (n *AdminNotifier) NotifyAdmin(ctx context.Context, text string) error {
	if n.client == nil || n.adminID == 0 {
		return errors.New("admin notifier misconfigured")
	}
	return n.client.Send(ctx, n.adminID, domain.Reply{Text: text})
}
