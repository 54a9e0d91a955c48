package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeVerificationEmail = "email:verification"
	TypeCVExport          = "cv:export"
)

// EmailPayload 描述一封待发送的纯文本邮件。
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewVerificationEmailTask 构造验证邮件任务。
// 邮件是尽力投递，不做重试，避免用户收到多封含不同令牌的邮件。
func NewVerificationEmailTask(to, subject, body string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeVerificationEmail, payload, asynq.MaxRetry(0)), nil
}

// CVExportPayload 描述一次异步简历导出所需的最小信息。
type CVExportPayload struct {
	ExportID      uint   `json:"export_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCVExportTask 构造一个新的简历导出任务。
func NewCVExportTask(exportID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CVExportPayload{
		ExportID:      exportID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCVExport, payload), nil
}

// NotifyChannel 返回账号级 Redis Pub/Sub 频道名，worker 发布、WebSocket 订阅。
func NotifyChannel(accountID uint) string {
	return fmt.Sprintf("account_notify:%d", accountID)
}
