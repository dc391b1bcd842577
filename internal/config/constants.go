package config

import "time"

const (
	// Rate limits (per minute)
	RateLimitPerMinute = 30

	// Audit log send timeout
	AuditLogTimeout = 10 * time.Second

	// Rate limit window cleanup
	RateLimitCleanup = 5 * time.Minute
)

// Commands registered on the bot.
const (
	CommandStart     = "/start"
	CommandPanel     = "/panel"
	CommandCancel    = "/cancel"
	CommandSendPhone = "/sendphone"
)
