package api

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"edtech/internal/api/middleware"
	"edtech/internal/database"
	"edtech/internal/export"
	"edtech/internal/metrics"
	"edtech/internal/resume"
	"edtech/internal/tasks"
)

// Exporter 把 CV 渲染为目标格式。
type Exporter interface {
	Export(ctx context.Context, cv resume.CV, format string) (*export.Document, error)
}

// TaskEnqueuer 抽象 asynq 客户端，*asynq.Client 直接满足。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DownloadSigner 为归档的导出文件签发限时下载链接。
type DownloadSigner interface {
	PresignDownload(ctx context.Context, objectKey string, duration time.Duration, filename string) (string, error)
}

// CVHandler 负责简历的创建、查看与导出。
type CVHandler struct {
	cvs        *database.CVStore
	exporter   Exporter
	queue      TaskEnqueuer
	signer     DownloadSigner
	presignTTL time.Duration
}

func NewCVHandler(cvs *database.CVStore, exporter Exporter, queue TaskEnqueuer, signer DownloadSigner, presignTTL time.Duration) *CVHandler {
	return &CVHandler{
		cvs:        cvs,
		exporter:   exporter,
		queue:      queue,
		signer:     signer,
		presignTTL: presignTTL,
	}
}

type linkRequest struct {
	Label string `json:"label" binding:"max=50"`
	URL   string `json:"url" binding:"required,max=255"`
}

type createCVRequest struct {
	FullName   string        `json:"full_name" binding:"required,max=100"`
	Email      string        `json:"email" binding:"required,email,max=120"`
	Phone      string        `json:"phone" binding:"required,max=20"`
	Links      []linkRequest `json:"links" binding:"max=10,dive"`
	Summary    string        `json:"summary"`
	Skills     string        `json:"skills"`
	Experience string        `json:"experience"`
	Education  string        `json:"education"`
	Projects   string        `json:"projects"`
}

// trimContact 去除姓名、邮箱、电话首尾空白，返回第一个为空的字段名。
func (r *createCVRequest) trimContact() string {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.FullName == "":
		return "full_name"
	case r.Email == "":
		return "email"
	case r.Phone == "":
		return "phone"
	}
	return ""
}

type cvResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	resume.CV
}

func newCVResponse(record *database.CV) (cvResponse, error) {
	doc, err := record.Document()
	if err != nil {
		return cvResponse{}, err
	}
	return cvResponse{ID: record.ID, CreatedAt: record.CreatedAt, CV: doc}, nil
}

// CreateCV 保存一份新的简历；保存后内容不可修改。
func (h *CVHandler) CreateCV(c *gin.Context) {
	var req createCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if field := req.trimContact(); field != "" {
		BadRequest(c, field+" must not be blank")
		return
	}
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	links := make([]resume.Link, 0, len(req.Links))
	for _, l := range req.Links {
		links = append(links, resume.Link{Label: l.Label, URL: l.URL})
	}
	encoded, err := database.EncodeLinks(links)
	if err != nil {
		BadRequest(c, "invalid links")
		return
	}

	record := &database.CV{
		AccountID:  account.ID,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Links:      encoded,
		Summary:    req.Summary,
		Skills:     req.Skills,
		Experience: req.Experience,
		Education:  req.Education,
		Projects:   req.Projects,
	}
	if err := h.cvs.CreateCV(c.Request.Context(), record); err != nil {
		middleware.LoggerFromContext(c).Error("create cv failed", slog.Any("error", err))
		Internal(c, "failed to create cv")
		return
	}

	resp, err := newCVResponse(record)
	if err != nil {
		Internal(c, "failed to render cv")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListCVs 列出当前账号的全部简历。
func (h *CVHandler) ListCVs(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	records, err := h.cvs.ListCVsByAccount(c.Request.Context(), account.ID)
	if err != nil {
		Internal(c, "failed to list cvs")
		return
	}

	items := make([]cvResponse, 0, len(records))
	for i := range records {
		resp, err := newCVResponse(&records[i])
		if err != nil {
			Internal(c, "failed to render cv")
			return
		}
		items = append(items, resp)
	}
	c.JSON(http.StatusOK, items)
}

// GetCV 返回指定简历。
func (h *CVHandler) GetCV(c *gin.Context) {
	record, ok := h.ownedCV(c)
	if !ok {
		return
	}
	resp, err := newCVResponse(record)
	if err != nil {
		Internal(c, "failed to render cv")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Download 同步渲染并以附件形式返回简历。
func (h *CVHandler) Download(c *gin.Context) {
	record, ok := h.ownedCV(c)
	if !ok {
		return
	}
	format := c.Param("format")

	cv, err := record.Document()
	if err != nil {
		Internal(c, "failed to load cv")
		return
	}

	doc, err := h.exporter.Export(c.Request.Context(), cv, format)
	metrics.ObserveExport(format, err)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			BadRequest(c, "Unsupported format")
			return
		}
		middleware.LoggerFromContext(c).Error("export cv failed",
			slog.Uint64("cv_id", uint64(record.ID)),
			slog.String("format", format),
			slog.Any("error", err),
		)
		Internal(c, "failed to export cv")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, doc.MIMEType, doc.Data)
}

type createExportRequest struct {
	Format string `json:"format" binding:"required"`
}

type exportResponse struct {
	ID        uint      `json:"id"`
	CVID      uint      `json:"cv_id"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newExportResponse(record *database.CVExport) exportResponse {
	return exportResponse{
		ID:        record.ID,
		CVID:      record.CVID,
		Format:    record.Format,
		Status:    record.Status,
		Error:     record.Error,
		CreatedAt: record.CreatedAt,
	}
}

// CreateExport 登记一次异步导出，结果归档到对象存储并通过 WebSocket 通知。
func (h *CVHandler) CreateExport(c *gin.Context) {
	record, ok := h.ownedCV(c)
	if !ok {
		return
	}

	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		BadRequest(c, "Unsupported format")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	exportRecord := &database.CVExport{
		CVID:      record.ID,
		AccountID: record.AccountID,
		Format:    string(format),
	}
	if err := h.cvs.CreateExport(ctx, exportRecord); err != nil {
		logger.Error("create export failed", slog.Any("error", err))
		Internal(c, "failed to create export")
		return
	}

	task, err := tasks.NewCVExportTask(exportRecord.ID, middleware.GetCorrelationID(c))
	if err == nil {
		_, err = h.queue.EnqueueContext(ctx, task)
	}
	if err != nil {
		logger.Error("enqueue export failed", slog.Any("error", err))
		_ = h.cvs.FailExport(ctx, exportRecord.ID, "enqueue failed")
		Internal(c, "failed to schedule export")
		return
	}

	c.JSON(http.StatusAccepted, newExportResponse(exportRecord))
}

// ExportLink 返回已完成导出的限时下载链接。
func (h *CVHandler) ExportLink(c *gin.Context) {
	record, ok := h.ownedCV(c)
	if !ok {
		return
	}
	exportID, err := idParam(c, "exportID")
	if err != nil {
		BadRequest(c, "invalid export id")
		return
	}

	ctx := c.Request.Context()
	exportRecord, err := h.cvs.FindExportByID(ctx, exportID)
	if err != nil || exportRecord.CVID != record.ID {
		if err == nil || errors.Is(err, database.ErrNotFound) {
			NotFound(c, "export not found")
			return
		}
		Internal(c, "failed to query export")
		return
	}

	if exportRecord.Status != database.ExportStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "export not ready",
			"export": newExportResponse(exportRecord),
		})
		return
	}

	cv, err := record.Document()
	if err != nil {
		Internal(c, "failed to load cv")
		return
	}
	filename := export.Filename(cv, export.Format(exportRecord.Format))

	url, err := h.signer.PresignDownload(ctx, exportRecord.ObjectKey, h.presignTTL, filename)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign export failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(h.presignTTL.Seconds()),
	})
}

// ownedCV 加载路径中的简历并校验归属：不存在返回 404，属于他人返回 403。
func (h *CVHandler) ownedCV(c *gin.Context) (*database.CV, bool) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid cv id")
		return nil, false
	}

	record, err := h.cvs.FindCVByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "cv not found")
			return nil, false
		}
		Internal(c, "failed to query cv")
		return nil, false
	}
	if record.AccountID != account.ID {
		Forbidden(c, "cv belongs to another account")
		return nil, false
	}
	return record, true
}
