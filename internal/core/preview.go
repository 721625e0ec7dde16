package core

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/raster"
)

// PreviewResult is a mask computed for one preview request
type PreviewResult struct {
	KeepP float64
	Mask  raster.Mask
	gen   uint64
}

// ThresholdPreview debounces threshold slider changes. Masks are computed
// off the UI goroutine. A result may still be queued for the UI when Stop or
// a newer Request supersedes it, so receivers check Current before applying.
type ThresholdPreview struct {
	mu      sync.Mutex
	compute func(keepP float64) (raster.Mask, error)
	logger  *logrus.Logger
	delay   time.Duration

	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64

	onResult func(PreviewResult)
	onError  func(error)
}

// NewThresholdPreview creates a preview running compute, typically
// Session.ThresholdMask
func NewThresholdPreview(compute func(float64) (raster.Mask, error), delay time.Duration, logger *logrus.Logger) *ThresholdPreview {
	return &ThresholdPreview{
		compute: compute,
		delay:   delay,
		logger:  logger,
	}
}

// SetCallbacks registers the result and error receivers
func (p *ThresholdPreview) SetCallbacks(onResult func(PreviewResult), onError func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onResult = onResult
	p.onError = onError
}

// Request schedules a computation for keepP, superseding pending ones
func (p *ThresholdPreview) Request(keepP float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.gen++
	gen := p.gen

	p.logger.WithField("keep_p", keepP).Debug("Scheduling threshold preview")
	p.timer = time.AfterFunc(p.delay, func() { p.run(ctx, gen, keepP) })
}

// Current reports whether r belongs to the latest request and no Stop
// happened since
func (p *ThresholdPreview) Current(r PreviewResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.gen == p.gen
}

func (p *ThresholdPreview) run(ctx context.Context, gen uint64, keepP float64) {
	start := time.Now()
	m, err := p.compute(keepP)

	p.mu.Lock()
	onResult, onError := p.onResult, p.onError
	p.mu.Unlock()

	if ctx.Err() != nil {
		p.logger.WithField("keep_p", keepP).Debug("Dropping superseded threshold preview")
		return
	}
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	p.logger.WithFields(logrus.Fields{
		"keep_p":      keepP,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Threshold preview ready")
	if onResult != nil {
		onResult(PreviewResult{KeepP: keepP, Mask: m, gen: gen})
	}
}

// Stop cancels any pending computation and invalidates results that were
// already delivered
func (p *ThresholdPreview) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
}
