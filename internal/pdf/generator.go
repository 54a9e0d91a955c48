package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const defaultRenderTimeout = 30 * time.Second

const fontsReadyScript = `() => {
  if (document && document.fonts && document.fonts.ready) {
    return Promise.race([
      document.fonts.ready.then(() => true),
      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
    ]);
  }
  return true;
}`

// ChromePrinter 使用 go-rod 在无头浏览器中把 HTML 打印为 PDF。
// 每次调用独立启动浏览器，不在请求之间共享状态。
type ChromePrinter struct {
	binPath string
	timeout time.Duration
	logger  *slog.Logger
}

// NewChromePrinter 构造打印器；binPath 为空时自动查找本机 Chromium。
func NewChromePrinter(binPath string, timeout time.Duration, logger *slog.Logger) *ChromePrinter {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromePrinter{binPath: binPath, timeout: timeout, logger: logger}
}

// PrintPDF 渲染 HTML 并返回完整缓冲的 PDF 字节。
func (p *ChromePrinter) PrintPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	switch {
	case p.binPath != "":
		launch = launch.Bin(p.binPath)
	default:
		if path, ok := launcher.LookPath(); ok {
			launch = launch.Bin(path)
		}
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(p.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(p.timeout)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// 等待字体就绪，避免回退字体度量导致排版差异；超时不算失败。
	if _, err := page.Timeout(5 * time.Second).Eval(fontsReadyScript); err != nil {
		p.logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", err))
	}

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return nil, fmt.Errorf("set emulated media to print: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}

	return data, nil
}
