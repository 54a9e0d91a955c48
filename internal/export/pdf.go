package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
)

// Printer 把自包含的 HTML 文档打印为 PDF 字节。
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

var errNoPrinter = errors.New("pdf printer not configured")

// pdfTemplate 与 Layout 的块一一对应：title / heading2 / normal，块组之间插入固定间距。
var pdfTemplate = template.Must(template.New("cv").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 20mm 18mm; }
body { margin: 0; font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #111; }
.title { font-size: 24pt; font-weight: bold; margin: 0 0 8pt 0; }
.heading2 { font-size: 14pt; font-weight: bold; margin: 0 0 4pt 0; page-break-after: avoid; }
.normal { margin: 0 0 4pt 0; white-space: pre-wrap; min-height: 11pt; }
.spacer { height: 12pt; }
</style>
</head>
<body>
{{range .Blocks}}{{if eq .Style 0}}<h1 class="title">{{.Text}}</h1>
{{else if eq .Style 2}}<h2 class="heading2">{{.Text}}</h2>
{{else}}<p class="normal">{{.Text}}</p>
{{end}}{{if .Gap}}<div class="spacer"></div>
{{end}}{{end}}</body>
</html>
`))

func renderHTML(blocks []Block) (string, error) {
	var title string
	if len(blocks) > 0 {
		title = blocks[0].Text
	}
	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, struct {
		Title  string
		Blocks []Block
	}{Title: title, Blocks: blocks}); err != nil {
		return "", fmt.Errorf("render cv html: %w", err)
	}
	return buf.String(), nil
}

// renderPDF 在内存中生成完整文档后一次性返回。
func renderPDF(ctx context.Context, printer Printer, blocks []Block) ([]byte, error) {
	if printer == nil {
		return nil, errNoPrinter
	}
	html, err := renderHTML(blocks)
	if err != nil {
		return nil, err
	}
	data, err := printer.PrintPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return data, nil
}
