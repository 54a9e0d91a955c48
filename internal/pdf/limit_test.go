package pdf

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPrinter struct {
	started chan struct{}
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func newBlockingPrinter() *blockingPrinter {
	return &blockingPrinter{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (p *blockingPrinter) PrintPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	current := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	p.started <- struct{}{}
	<-p.release
	return []byte("%PDF-" + htmlContent), nil
}

func TestLimitedPrinter_WaitingCallerHonoursContext(t *testing.T) {
	inner := newBlockingPrinter()
	printer := NewLimitedPrinter(inner, 1)

	done := make(chan error, 1)
	go func() {
		_, err := printer.PrintPDF(context.Background(), "a")
		done <- err
	}()
	<-inner.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := printer.PrintPDF(ctx, "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(inner.release)
	require.NoError(t, <-done)
}

func TestLimitedPrinter_CapsConcurrentRenders(t *testing.T) {
	inner := newBlockingPrinter()
	printer := NewLimitedPrinter(inner, 2)

	results := make(chan []byte, 4)
	for i := 0; i < 4; i++ {
		go func() {
			data, err := printer.PrintPDF(context.Background(), "x")
			if err != nil {
				results <- nil
				return
			}
			results <- data
		}()
	}

	<-inner.started
	<-inner.started
	select {
	case <-inner.started:
		t.Fatal("third render started while two slots were busy")
	case <-time.After(30 * time.Millisecond):
	}

	close(inner.release)
	for i := 0; i < 4; i++ {
		assert.Equal(t, []byte("%PDF-x"), <-results)
	}
	assert.Equal(t, int32(2), inner.peak.Load())
}

func TestNewLimitedPrinter_ClampsToOne(t *testing.T) {
	inner := newBlockingPrinter()
	close(inner.release)
	printer := NewLimitedPrinter(inner, 0)

	data, err := printer.PrintPDF(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-ok"), data)
}
