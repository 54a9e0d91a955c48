package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
)

// renderDOCX 将姓名写为 0 级标题（Title 样式），段落标题写为 1 级标题，其余块写为普通段落。
// 多行正文按行拆成多个段落；空正文仍保留一个空段落。
func renderDOCX(blocks []Block) ([]byte, error) {
	document, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new docx document: %w", err)
	}

	for _, block := range blocks {
		switch block.Style {
		case StyleTitle:
			if _, err := document.AddHeading(block.Text, 0); err != nil {
				return nil, fmt.Errorf("add docx title: %w", err)
			}
		case StyleHeading:
			if _, err := document.AddHeading(block.Text, 1); err != nil {
				return nil, fmt.Errorf("add docx heading %q: %w", block.Text, err)
			}
		default:
			for _, line := range strings.Split(block.Text, "\n") {
				document.AddParagraph(line)
			}
		}
	}

	var buf bytes.Buffer
	if err := document.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
