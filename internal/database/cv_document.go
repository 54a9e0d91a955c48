package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"edtech/internal/resume"
)

// Document 将持久化的 CV 转换为导出引擎使用的记录。
func (c CV) Document() (resume.CV, error) {
	links, err := DecodeLinks(c.Links)
	if err != nil {
		return resume.CV{}, err
	}
	return resume.CV{
		FullName:   c.FullName,
		Email:      c.Email,
		Phone:      c.Phone,
		Links:      links,
		Summary:    c.Summary,
		Skills:     c.Skills,
		Experience: c.Experience,
		Education:  c.Education,
		Projects:   c.Projects,
	}, nil
}

// EncodeLinks 序列化可选链接；空列表存为 NULL。
func EncodeLinks(links []resume.Link) (datatypes.JSON, error) {
	if len(links) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("encode cv links: %w", err)
	}
	return datatypes.JSON(data), nil
}

// DecodeLinks 解析 Links 列。
func DecodeLinks(raw datatypes.JSON) ([]resume.Link, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var links []resume.Link
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decode cv links: %w", err)
	}
	return links, nil
}
