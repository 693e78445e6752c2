package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	domsvc "EngineGate/internal/domain/service"
	"EngineGate/internal/service/ratelimit"
)

// Per chat budget: short bursts, then one message per second.
const (
	burst        = 20
	refillPerSec = 1
)

var ErrThrottled = errors.New("telegram: rate limited, message dropped")

type Option func(*options)

type options struct {
	endpoint string
	timeout  time.Duration
	limiter  *ratelimit.Limiter
}

// WithEndpoint overrides the Bot API endpoint format, e.g. for a local test server.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// Notifier posts HTML formatted messages to one chat.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *ratelimit.Limiter
}

// New authenticates the bot token against the Bot API.
func New(token string, chatID int64, opts ...Option) (*Notifier, error) {
	o := options{endpoint: tgbotapi.APIEndpoint, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New()
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, &http.Client{Timeout: o.timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID, limiter: o.limiter}, nil
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.limiter.Allow(strconv.FormatInt(n.chatID, 10), burst, refillPerSec) {
		return ErrThrottled
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var _ domsvc.Notifier = (*Notifier)(nil)
