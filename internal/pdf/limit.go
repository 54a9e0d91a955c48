package pdf

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Printer 与 export.Printer 签名一致，避免反向依赖 export 包。
type Printer interface {
	PrintPDF(ctx context.Context, htmlContent string) ([]byte, error)
}

// LimitedPrinter 限制同时运行的渲染数量。每次渲染都会拉起一个 Chromium 进程，
// 同步下载接口必须经过它，否则并发请求会各自启动浏览器。
type LimitedPrinter struct {
	next Printer
	sem  *semaphore.Weighted
}

// NewLimitedPrinter 包装 next；maxConcurrent 小于 1 时按 1 处理。
func NewLimitedPrinter(next Printer, maxConcurrent int) *LimitedPrinter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &LimitedPrinter{next: next, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// PrintPDF 等待空闲槽位后再委托渲染；ctx 先结束则直接返回其错误。
func (p *LimitedPrinter) PrintPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for render slot: %w", err)
	}
	defer p.sem.Release(1)

	return p.next.PrintPDF(ctx, htmlContent)
}
