package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Required channel membership
	ChannelID         string `env:"CHANNEL_ID,required"`
	ChannelInviteLink string `env:"CHANNEL_INVITE_LINK"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Registration
	RequirePhoneDefault bool `env:"REQUIRE_PHONE_DEFAULT" envDefault:"false"`

	// Consultation
	PaymentAmount       decimal.Decimal `env:"PAYMENT_AMOUNT" envDefault:"500000"`
	PaymentCardNumber   string          `env:"PAYMENT_CARD_NUMBER" envDefault:"6037-1234-5678-9012"`
	PaymentCurrency     string          `env:"PAYMENT_CURRENCY" envDefault:"Toman"`
	ConsultationMessage string          `env:"CONSULTATION_MESSAGE" envDefault:"Bring your problem, we find its root and give you a practical plan. Book a consultation to get there faster."`

	// Delivery
	BroadcastConcurrency int           `env:"BROADCAST_CONCURRENCY" envDefault:"8"`
	SendTimeout          time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`

	// Sessions
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"6h"`
	SessionSweepSpec   string        `env:"SESSION_SWEEP_SPEC" envDefault:"*/15 * * * *"`

	// Server
	Port int `env:"PORT" envDefault:"3000"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"true"`

	// Logging
	LogLevel             slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogTelegramChatID    int64      `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError        int        `env:"LOG_TOPIC_ERROR"`
	LogTopicRegistration int        `env:"LOG_TOPIC_REGISTRATION"`
	LogTopicAdmins       int        `env:"LOG_TOPIC_ADMINS"`
	LogTopicBroadcast    int        `env:"LOG_TOPIC_BROADCAST"`
	LogTopicConsultation int        `env:"LOG_TOPIC_CONSULTATION"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.resolveChannel(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveChannel accepts CHANNEL_ID as @username, numeric chat id or invite link
// and fills in whatever part is derivable.
func (c *Config) resolveChannel() error {
	raw := strings.TrimSpace(c.ChannelID)
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"), strings.HasPrefix(raw, "t.me/"):
		return fmt.Errorf("CHANNEL_ID must be @username or a numeric chat id, put the link into CHANNEL_INVITE_LINK")
	case strings.HasPrefix(raw, "@"):
		if c.ChannelInviteLink == "" {
			c.ChannelInviteLink = "https://t.me/" + strings.TrimPrefix(raw, "@")
		}
	default:
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Errorf("CHANNEL_ID must be numeric or start with @: %w", err)
		}
		if c.ChannelInviteLink == "" {
			return fmt.Errorf("CHANNEL_INVITE_LINK is required when CHANNEL_ID is numeric")
		}
	}
	c.ChannelID = raw
	return nil
}

// ChannelChat returns the channel identifier in the form the Bot API accepts.
func (c *Config) ChannelChat() any {
	if id, err := strconv.ParseInt(c.ChannelID, 10, 64); err == nil {
		return id
	}
	return c.ChannelID
}

func (c *Config) IsBootstrapAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Runtime holds flags admins can flip while the bot is running.
type Runtime struct {
	phoneRequired atomic.Bool
}

func NewRuntime(phoneRequired bool) *Runtime {
	r := &Runtime{}
	r.phoneRequired.Store(phoneRequired)
	return r
}

func (r *Runtime) PhoneRequired() bool {
	return r.phoneRequired.Load()
}

func (r *Runtime) SetPhoneRequired(v bool) {
	r.phoneRequired.Store(v)
}
