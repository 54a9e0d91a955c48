package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"edtech/internal/metrics"
	"edtech/internal/tasks"
)

// MailSender 同步发送一封纯文本邮件。
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailTaskHandler 消费验证邮件任务。
type EmailTaskHandler struct {
	sender MailSender
	logger *slog.Logger
}

func NewEmailTaskHandler(sender MailSender, logger *slog.Logger) *EmailTaskHandler {
	return &EmailTaskHandler{sender: sender, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *EmailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal email payload failed", slog.Any("error", err))
		return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
	}

	err := h.sender.Send(ctx, payload.To, payload.Subject, payload.Body)
	metrics.ObserveVerificationEmail(err)
	if err != nil {
		h.logger.Warn("send email failed",
			slog.String("to", payload.To),
			slog.Any("error", err),
		)
		return err
	}

	h.logger.Info("email sent", slog.String("to", payload.To))
	return nil
}
