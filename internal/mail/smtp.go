// Package mail 负责验证邮件的投递：API 侧入队，worker 侧经 SMTP 发出。
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"edtech/internal/config"
)

// Dialer 抽象 SMTP 连接，*gomail.Dialer 直接满足该接口。
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender 通过 SMTP（STARTTLS + 账号密码）发送纯文本邮件。
// 连续失败后熔断，避免 SMTP 中继故障时每个任务都卡在连接超时上。
type SMTPSender struct {
	dialer Dialer
	from   string
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewSMTPSender 根据配置创建发送器。
func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewSMTPSenderWithDialer(dialer, cfg.Sender(), logger)
}

// NewSMTPSenderWithDialer 使用自定义 Dialer 创建发送器。
func NewSMTPSenderWithDialer(dialer Dialer, from string, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	st := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &SMTPSender{
		dialer: dialer,
		from:   from,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Send 发送一封纯文本邮件。
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("mail recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.dialer.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
