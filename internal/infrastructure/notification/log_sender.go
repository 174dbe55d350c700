package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"github.com/smartqueue/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	ErrEmptyPhone   = errors.New("sms: recipient phone is empty")
	ErrEmptyMessage = errors.New("sms: message is empty")
)

// smsSegment is the length of one GSM-7 SMS
const smsSegment = 160

// LogSender writes SMS messages to the log instead of an operator API
type LogSender struct {
	senderName string
	enabled    bool
	logger     *zap.Logger

	mu   sync.Mutex
	sent []SentMessage
	keep int
}

// SentMessage is one message handed to the sender
type SentMessage struct {
	Phone string
	Text  string
}

// NewLogSender creates a log sender. The last keep messages are kept in memory.
func NewLogSender(cfg config.NotificationConfig, keep int, log *zap.Logger) *LogSender {
	return &LogSender{
		senderName: cfg.SenderName,
		enabled:    cfg.Enabled,
		logger:     log,
		keep:       keep,
	}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, phone, text string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrEmptyPhone
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	l := logger.WithLogger(ctx, s.logger)
	if !s.enabled {
		l.Debug("SMS suppressed, notifications disabled", zap.String("to", MaskPhone(phone)))
		return nil
	}

	l.Info("SMS sent",
		zap.String("from", s.senderName),
		zap.String("to", MaskPhone(phone)),
		zap.Int("segments", Segments(text)),
		zap.String("text", text),
	)

	if s.keep > 0 {
		s.mu.Lock()
		s.sent = append(s.sent, SentMessage{Phone: phone, Text: text})
		if len(s.sent) > s.keep {
			s.sent = s.sent[len(s.sent)-s.keep:]
		}
		s.mu.Unlock()
	}
	return nil
}

// Sent returns a copy of the kept messages, oldest first
func (s *LogSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}

// MaskPhone hides all but the last four digits
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// Segments returns how many SMS parts text needs
func Segments(text string) int {
	n := utf8.RuneCountInString(text)
	if n <= smsSegment {
		return 1
	}
	// concatenated messages lose 7 characters per part to the header
	return (n + smsSegment - 8) / (smsSegment - 7)
}

var _ notification.Sender = (*LogSender)(nil)
