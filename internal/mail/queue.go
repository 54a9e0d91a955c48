package mail

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"edtech/internal/tasks"
)

// Enqueuer 抽象 asynq 客户端的入队能力。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier 把邮件交给 worker 异步发送，使注册请求不受 SMTP 延迟影响。
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// Send 将邮件入队。
func (n *QueueNotifier) Send(ctx context.Context, to, subject, body string) error {
	task, err := tasks.NewVerificationEmailTask(to, subject, body)
	if err != nil {
		return fmt.Errorf("build email task: %w", err)
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue email task: %w", err)
	}
	return nil
}
