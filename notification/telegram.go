// Package notification delivers engine events to external channels.
package notification

import (
	"fmt"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/ruleforge/core"
)

const pollingTimeout = 10 * time.Second

// Telegram implements core.Notifier over a Telegram bot. A StatusFunc can
// be attached to answer /status queries.
type Telegram struct {
	client     *tb.Bot
	chatID     int64
	statusFunc func() string
	log        core.Logger
}

// TelegramOption configures a Telegram notifier.
type TelegramOption func(*Telegram)

// WithStatusFunc sets the handler answering /status messages.
func WithStatusFunc(fn func() string) TelegramOption {
	return func(t *Telegram) { t.statusFunc = fn }
}

// NewTelegram creates a notifier sending to the given chat.
func NewTelegram(token string, chatID int64, log core.Logger, opts ...TelegramOption) (*Telegram, error) {
	client, err := tb.NewBot(tb.Settings{
		Token:     token,
		ParseMode: tb.ModeMarkdown,
		Poller:    &tb.LongPoller{Timeout: pollingTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	t := &Telegram{
		client: client,
		chatID: chatID,
		log:    log,
	}
	for _, opt := range opts {
		opt(t)
	}

	client.Handle("/status", t.statusHandle)

	return t, nil
}

// Start begins polling for incoming commands. Blocks; run in a goroutine.
func (t *Telegram) Start() {
	t.client.Start()
}

// Notify implements core.Notifier.
func (t *Telegram) Notify(message string) {
	t.send(message)
}

// OnPositionOpened implements core.Notifier.
func (t *Telegram) OnPositionOpened(position *core.PseudoPosition) {
	t.send(fmt.Sprintf("*Opened* %s %s @ %.8f (combination `%s`)",
		position.Direction, position.Symbol, position.EntryPrice, position.Combination.Hash()))
}

// OnPositionClosed implements core.Notifier.
func (t *Telegram) OnPositionClosed(position *core.PseudoPosition) {
	t.send(fmt.Sprintf("*Closed* %s %s @ %.8f (%s, PnL %.2f%%)",
		position.Direction, position.Symbol, position.ExitPrice,
		position.ExitReason, position.PnL(position.ExitPrice)*100))
}

// OnError implements core.Notifier.
func (t *Telegram) OnError(err error) {
	t.send(fmt.Sprintf("*Error*: %v", err))
}

func (t *Telegram) statusHandle(m *tb.Message) {
	if t.statusFunc == nil {
		return
	}
	t.sendTo(m.Sender, t.statusFunc())
}

func (t *Telegram) send(text string) {
	if _, err := t.client.Send(&tb.Chat{ID: t.chatID}, text); err != nil {
		t.log.WithError(err).Error("failed to send telegram message")
	}
}

func (t *Telegram) sendTo(to *tb.User, text string) {
	if _, err := t.client.Send(to, text); err != nil {
		t.log.WithError(err).Error("failed to send telegram message")
	}
}
