package resume

// CV 是导出引擎消费的简历记录。各段落允许为空字符串，但渲染时不会省略标题。
type CV struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Links      []Link `json:"links,omitempty"`
	Summary    string `json:"summary"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
	Projects   string `json:"projects"`
}

// Link 表示可选的个人链接，例如 LinkedIn 或 GitHub。
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Section 是固定顺序中的一个正文段落。
type Section struct {
	Title string
	Body  string
}

// Sections 按固定顺序返回五个正文段落：Summary、Skills、Experience、Education、Projects。
func (cv CV) Sections() []Section {
	return []Section{
		{Title: "Summary", Body: cv.Summary},
		{Title: "Skills", Body: cv.Skills},
		{Title: "Experience", Body: cv.Experience},
		{Title: "Education", Body: cv.Education},
		{Title: "Projects", Body: cv.Projects},
	}
}
