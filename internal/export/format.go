package export

import (
	"errors"
	"strings"
)

// ErrUnsupportedFormat 表示请求的格式不是 pdf、docx 或 txt。
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format 是简历支持的导出格式。
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// ParseFormat 只接受下载路径中使用的小写格式名。
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.TrimSpace(raw)); f {
	case FormatPDF, FormatDOCX, FormatTXT:
		return f, nil
	}
	return "", ErrUnsupportedFormat
}

// Extension 返回不带点的文件扩展名。
func (f Format) Extension() string {
	return string(f)
}

// MIMEType 返回格式对应的固定 MIME 类型。
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatTXT:
		return "text/plain"
	}
	return "application/octet-stream"
}
