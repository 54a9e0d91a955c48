package export

import (
	"strings"

	"edtech/internal/resume"
)

// Style 是块的段落样式。
type Style int

const (
	StyleTitle Style = iota
	StyleNormal
	StyleHeading
)

// Block 是共享版式中的一个段落。Gap 标记一组内容（抬头或段落正文）的结尾，
// 渲染器在其后插入间距。
type Block struct {
	Style Style
	Text  string
	Gap   bool
}

// Layout 把简历映射为固定的块序列：抬头（姓名、邮箱、电话、可选链接），
// 然后是 Summary、Skills、Experience、Education、Projects，每段为标题加正文。
// 正文为空时仍生成正文块，任何渲染器都不会省略段落。
func Layout(cv resume.CV) []Block {
	blocks := []Block{
		{Style: StyleTitle, Text: oneLine(cv.FullName)},
		{Style: StyleNormal, Text: "Email: " + oneLine(cv.Email)},
		{Style: StyleNormal, Text: "Phone: " + oneLine(cv.Phone)},
	}
	for _, link := range cv.Links {
		url := oneLine(link.URL)
		if url == "" {
			continue
		}
		label := oneLine(link.Label)
		if label == "" {
			label = "Link"
		}
		blocks = append(blocks, Block{Style: StyleNormal, Text: label + ": " + url})
	}
	blocks[len(blocks)-1].Gap = true

	for _, section := range cv.Sections() {
		blocks = append(blocks,
			Block{Style: StyleHeading, Text: section.Title},
			Block{Style: StyleNormal, Text: normalizeNewlines(section.Body), Gap: true},
		)
	}
	return blocks
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(normalizeNewlines(s), "\n", " "))
}
