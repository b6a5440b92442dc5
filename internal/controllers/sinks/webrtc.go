package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/zap"
)

// SampleWriter is satisfied by *webrtc.TrackLocalStaticSample.
type SampleWriter interface {
	WriteSample(s media.Sample) error
}

// WebRTCSink writes every access unit as one Annex-B sample. When paced it
// waits a sample duration between writes, which turns a file into a live
// feed.
type WebRTCSink struct {
	ctx      context.Context
	l        *zap.SugaredLogger
	m        *mapper.Mapper
	w        SampleWriter
	duration time.Duration
	ticker   *time.Ticker
	samples  uint64
}

func NewWebRTCSink(
	ctx context.Context,
	l *zap.SugaredLogger,
	m *mapper.Mapper,
	w SampleWriter,
	duration time.Duration,
	paced bool,
) *WebRTCSink {
	s := &WebRTCSink{
		ctx:      ctx,
		l:        l,
		m:        m,
		w:        w,
		duration: duration,
	}
	if paced && duration > 0 {
		s.ticker = time.NewTicker(duration)
	}
	return s
}

func (s *WebRTCSink) FrameReady(au *entities.AccessUnit) error {
	if err := s.wait(); err != nil {
		return err
	}

	sample := media.Sample{
		Data:     s.m.FromAccessUnitToAnnexB(au),
		Duration: s.duration,
	}
	if err := s.w.WriteSample(sample); err != nil {
		return fmt.Errorf("webrtc: writing frame %d: %w", au.Index, err)
	}
	s.samples++
	return nil
}

func (s *WebRTCSink) wait() error {
	if s.ticker == nil {
		return s.ctx.Err()
	}
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-s.ticker.C:
		return nil
	}
}

func (s *WebRTCSink) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.l.Infow("webrtc sink closed",
		"samples", s.samples,
	)
	return nil
}
