package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"edtech/internal/tasks"
)

// ExportNotifyMessage 是通过 Redis Pub/Sub 转发给 WebSocket 客户端的导出结果。
type ExportNotifyMessage struct {
	Status        string `json:"status"`
	ExportID      uint   `json:"export_id"`
	CVID          uint   `json:"cv_id"`
	Format        string `json:"format"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// Publisher 抽象 Redis 发布能力，*redis.Client 直接满足该接口。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func publishNotify(ctx context.Context, publisher Publisher, accountID uint, notify ExportNotifyMessage) error {
	if publisher == nil {
		return nil
	}
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(accountID)
	if err := publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
