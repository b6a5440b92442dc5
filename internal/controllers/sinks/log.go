package sinks

import (
	"github.com/dustin/go-humanize"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LogSink struct {
	l      *zap.SugaredLogger
	frames uint64
	bytes  uint64
}

func NewLogSink(l *zap.SugaredLogger) *LogSink {
	return &LogSink{l: l}
}

func (s *LogSink) FrameReady(au *entities.AccessUnit) error {
	size := uint64(au.Size())
	s.frames++
	s.bytes += size

	fields := []interface{}{
		"index", au.Index,
		"keyframe", au.Keyframe,
		"slices", len(au.NALs),
		"size", humanize.Bytes(size),
	}
	if au.HasPrimary() {
		p := au.Primary
		fields = append(fields,
			"slice_type", p.Type.String(),
			"frame_num", p.FrameNum,
			"poc_type", p.PicOrderCntType(),
		)
		switch p.PicOrderCntType() {
		case 0:
			fields = append(fields,
				"poc_lsb", p.PicOrderCntLsb,
				"delta_poc_bottom", p.DeltaPicOrderCntBottom,
			)
		case 1:
			fields = append(fields,
				"delta_poc_0", p.DeltaPicOrderCnt[0],
				"delta_poc_1", p.DeltaPicOrderCnt[1],
			)
		}
	}
	if au.Timecode != nil {
		fields = append(fields, "timecode", au.Timecode.String())
	}

	s.l.Debugw("frame ready", fields...)
	return nil
}

func (s *LogSink) Close() error {
	s.l.Infow("log sink closed",
		"frames", s.frames,
		"total", humanize.Bytes(s.bytes),
	)
	return nil
}

type logFactory struct {
	l *zap.SugaredLogger
}

type LogFactoryParams struct {
	fx.In
	L *zap.SugaredLogger
}

type ResultLogFactory struct {
	fx.Out
	LogFactory Factory `group:"sinks"`
}

func NewLogFactory(p LogFactoryParams) ResultLogFactory {
	return ResultLogFactory{
		LogFactory: &logFactory{l: p.L},
	}
}

func (f *logFactory) Name() string {
	return "log"
}

func (f *logFactory) New(req *entities.RequestParams) (Sink, error) {
	return NewLogSink(f.l.With("sink", f.Name(), "request", req.Name)), nil
}
