package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果标签：retry 表示交还 asynq 重试，skipped 表示永久失败不再重试。
const (
	TaskResultSuccess = "success"
	TaskResultRetry   = "retry"
	TaskResultSkipped = "skipped"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Queue tasks handled by the worker, by task type and result.",
		},
		[]string{"task_type", "result"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Time spent in a task handler. CV exports include the Chromium render.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"task_type"},
	)

	tasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_in_flight",
			Help:      "Tasks currently being processed.",
		},
		[]string{"task_type"},
	)
)

// AsynqMetricsMiddleware 记录 worker 的任务数量、耗时与结果。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			tasksInFlight.WithLabelValues(taskType).Inc()
			defer tasksInFlight.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksTotal.WithLabelValues(taskType, TaskResult(err)).Inc()

			return err
		})
	}
}

// TaskResult 把处理器返回值映射为结果标签。
func TaskResult(err error) string {
	switch {
	case err == nil:
		return TaskResultSuccess
	case errors.Is(err, asynq.SkipRetry):
		return TaskResultSkipped
	default:
		return TaskResultRetry
	}
}
