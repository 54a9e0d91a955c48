// Package export 将简历渲染为 PDF、DOCX 或纯文本。
// 三种格式共用同一套块版式，段落顺序与文本内容一致。
package export

import (
	"context"
	"fmt"
	"strings"

	"edtech/internal/resume"
)

// Document 是渲染完成、可直接交付的导出结果。
type Document struct {
	Format   Format
	Filename string
	MIMEType string
	Data     []byte
}

// Engine 负责渲染简历，不保存请求间状态。
type Engine struct {
	printer Printer
}

// NewEngine 创建导出引擎；printer 仅 pdf 格式需要。
func NewEngine(printer Printer) *Engine {
	return &Engine{printer: printer}
}

// Export 按请求格式渲染简历；未知格式在渲染前即返回 ErrUnsupportedFormat。
func (e *Engine) Export(ctx context.Context, cv resume.CV, format string) (*Document, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	blocks := Layout(cv)

	var data []byte
	switch f {
	case FormatTXT:
		data = renderText(blocks)
	case FormatDOCX:
		data, err = renderDOCX(blocks)
	case FormatPDF:
		data, err = renderPDF(ctx, e.printer, blocks)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", f, err)
	}

	return &Document{
		Format:   f,
		Filename: Filename(cv, f),
		MIMEType: f.MIMEType(),
		Data:     data,
	}, nil
}

// Filename 固定为 "<姓名>.<扩展名>"。
func Filename(cv resume.CV, f Format) string {
	return strings.TrimSpace(cv.FullName) + "." + f.Extension()
}
