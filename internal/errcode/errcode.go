package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方输入导致的失败（例如不支持的格式）
// - 5xxx：系统错误（渲染、存储等）
const (
	OK                = 0
	UnsupportedFormat = 4000
	ResourceMissing   = 4004
	SystemError       = 5000
)
