package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"edtech/internal/database"
	"edtech/internal/errcode"
	"edtech/internal/export"
	"edtech/internal/metrics"
	"edtech/internal/resume"
	"edtech/internal/tasks"
)

// ExportStore 是导出任务需要的持久化能力，*database.CVStore 直接满足。
type ExportStore interface {
	FindExportByID(ctx context.Context, id uint) (*database.CVExport, error)
	FindCVByID(ctx context.Context, id uint) (*database.CV, error)
	CompleteExport(ctx context.Context, id uint, objectKey string) error
	FailExport(ctx context.Context, id uint, reason string) error
}

// Exporter 把 CV 渲染为目标格式。
type Exporter interface {
	Export(ctx context.Context, cv resume.CV, format string) (*export.Document, error)
}

// Uploader 把导出结果写入对象存储，*storage.Client 直接满足。
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// ExportTaskHandler 负责消费 CV 导出任务。
type ExportTaskHandler struct {
	store     ExportStore
	exporter  Exporter
	uploader  Uploader
	publisher Publisher
	logger    *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(store ExportStore, exporter Exporter, uploader Uploader, publisher Publisher, logger *slog.Logger) *ExportTaskHandler {
	return &ExportTaskHandler{
		store:     store,
		exporter:  exporter,
		uploader:  uploader,
		publisher: publisher,
		logger:    logger,
	}
}

// ObjectKey 返回导出文件在 Bucket 中的位置。
func ObjectKey(accountID uint, format export.Format) string {
	return fmt.Sprintf("cv-exports/%d/%s.%s", accountID, uuid.NewString(), format.Extension())
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.CVExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode export payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("export_id", uint64(payload.ExportID)),
	)

	record, err := h.store.FindExportByID(ctx, payload.ExportID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Warn("export not found, skipping task")
			return nil
		}
		log.Error("query export failed", slog.Any("error", err))
		return err
	}
	if record.Status == database.ExportStatusCompleted {
		log.Info("export already completed, skipping task")
		return nil
	}

	log = log.With(
		slog.Uint64("account_id", uint64(record.AccountID)),
		slog.Uint64("cv_id", uint64(record.CVID)),
		slog.String("format", record.Format),
	)
	log.Info("starting cv export task")

	notify := ExportNotifyMessage{
		ExportID:      record.ID,
		CVID:          record.CVID,
		Format:        record.Format,
		CorrelationID: payload.CorrelationID,
	}

	defer func() {
		if retErr == nil || errors.Is(retErr, asynq.SkipRetry) || !isFinalAsynqAttempt(ctx) {
			return
		}
		h.fail(ctx, log, record, notify, errcode.SystemError, retErr)
	}()

	cvRecord, err := h.store.FindCVByID(ctx, record.CVID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(ctx, log, record, notify, errcode.ResourceMissing, err)
			return fmt.Errorf("cv %d missing: %w", record.CVID, asynq.SkipRetry)
		}
		log.Error("query cv failed", slog.Any("error", err))
		return err
	}

	cv, err := cvRecord.Document()
	if err != nil {
		h.fail(ctx, log, record, notify, errcode.SystemError, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	doc, err := h.exporter.Export(ctx, cv, record.Format)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			h.fail(ctx, log, record, notify, errcode.UnsupportedFormat, err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		log.Error("render export failed", slog.Any("error", err))
		return err
	}

	objectName := ObjectKey(record.AccountID, doc.Format)
	if _, err := h.uploader.UploadFile(ctx, objectName, bytes.NewReader(doc.Data), int64(len(doc.Data)), doc.MIMEType); err != nil {
		log.Error("upload export to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.store.CompleteExport(ctx, record.ID, objectName); err != nil {
		log.Error("update export failed", slog.Any("error", err))
		// 重试会生成新的对象名，这里先清理本次上传。
		if delErr := h.uploader.DeleteObject(ctx, objectName); delErr != nil {
			log.Warn("remove orphaned export object failed", slog.String("object_key", objectName), slog.Any("error", delErr))
		}
		return err
	}
	metrics.ObserveExport(record.Format, nil)

	notify.Status = database.ExportStatusCompleted
	notify.ErrorCode = errcode.OK
	if err := publishNotify(ctx, h.publisher, record.AccountID, notify); err != nil {
		log.Warn("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("cv export task completed", slog.String("object_key", objectName))
	return nil
}

func (h *ExportTaskHandler) fail(ctx context.Context, log *slog.Logger, record *database.CVExport, notify ExportNotifyMessage, code int, cause error) {
	reason := strings.TrimSpace(cause.Error())
	metrics.ObserveExport(record.Format, cause)

	if err := h.store.FailExport(ctx, record.ID, reason); err != nil {
		log.Error("mark export failed", slog.Any("error", err))
	}

	notify.Status = database.ExportStatusFailed
	notify.ErrorCode = code
	notify.ErrorMessage = reason
	if err := publishNotify(ctx, h.publisher, record.AccountID, notify); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
