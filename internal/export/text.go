package export

import (
	"bytes"
)

// renderText 输出纯文本：先是抬头行和一个空行，
// 随后每个段落为 "标题:" 一行加正文，段落之间以空行分隔。
func renderText(blocks []Block) []byte {
	var buf bytes.Buffer
	for i, block := range blocks {
		buf.WriteString(block.Text)
		if block.Style == StyleHeading {
			buf.WriteByte(':')
		}
		buf.WriteByte('\n')
		if block.Gap && i < len(blocks)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
