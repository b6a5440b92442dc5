package engine

import (
	"context"
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sinks"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sources"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Engine interface {
	// Run frames the whole input. Extra sinks receive every frame after the
	// configured ones and are closed with them.
	Run(ctx context.Context, extra ...sinks.Sink) (*Report, error)
}

// Report is the outcome of a run.
type Report struct {
	Config entities.StreamConfig   `json:"config"`
	Stats  session.Stats           `json:"stats"`
	Frames []entities.FrameSummary `json:"frames"`
	Cues   []entities.Cue          `json:"captions,omitempty"`
}

type EngineParams struct {
	fx.In
	C        *entities.Config
	L        *zap.SugaredLogger
	Sessions *session.Controller
	Mapper   *mapper.Mapper

	Sources []sources.Source `group:"sources"`
	Sinks   []sinks.Factory  `group:"sinks"`
}

type EngineController struct {
	p EngineParams
}

func NewEngineController(p EngineParams) *EngineController {
	for _, name := range p.C.Sinks {
		if findFactory(p.Sinks, name) == nil {
			p.L.Warnw("unknown sink in configuration",
				"sink", name,
			)
		}
	}
	return &EngineController{p}
}

func (c *EngineController) EngineFor(req *entities.RequestParams) (Engine, error) {
	if err := req.Valid(); err != nil {
		return nil, err
	}

	source := c.selectSourceFor(req)
	if source == nil {
		return nil, fmt.Errorf("request %v: not fulfilled error %w", req, entities.ErrMissingSource)
	}

	return &engine{
		c:      c.p.C,
		l:      c.p.L.With("request", req.Name),
		source: source,
		sinks:  c.p.Sinks,
		s:      c.p.Sessions,
		mapper: c.p.Mapper,
		req:    req,
	}, nil
}

func (c *EngineController) selectSourceFor(req *entities.RequestParams) sources.Source {
	for _, s := range c.p.Sources {
		if s.Match(req) {
			return s
		}
	}
	return nil
}

func findFactory(factories []sinks.Factory, name string) sinks.Factory {
	for _, f := range factories {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

type engine struct {
	c      *entities.Config
	l      *zap.SugaredLogger
	source sources.Source
	sinks  []sinks.Factory
	s      *session.Controller
	mapper *mapper.Mapper
	req    *entities.RequestParams
}

func (e *engine) Run(ctx context.Context, extra ...sinks.Sink) (report *Report, err error) {
	report = &Report{Frames: []entities.FrameSummary{}}
	collector := sinks.FrameSinkCloser{FrameSink: entities.FrameSinkFunc(func(au *entities.AccessUnit) error {
		report.Frames = append(report.Frames, e.mapper.FromAccessUnitToFrameSummary(au))
		return nil
	})}

	configured, err := e.configuredSinks()
	if err != nil {
		// extra sinks are owned by the run even when it does not start
		closeErr := sinks.Multi(extra).Close()
		return nil, multierr.Append(err, closeErr)
	}
	all := append(sinks.Multi{collector}, configured...)
	all = append(all, extra...)
	defer func() {
		err = multierr.Append(err, all.Close())
		if err != nil {
			report = nil
		}
	}()

	s := e.s.NewSession(e.req.Name, all)
	s.Start()
	defer s.Stop()

	if e.req.Format == entities.AVCFormat {
		if err := s.SetCodecData(e.req.CodecData); err != nil {
			return nil, err
		}
	}

	e.l.Infow("run started",
		"format", e.req.Format,
		"sinks", len(all)-1,
	)
	if err := e.source.Feed(ctx, e.req, s); err != nil {
		e.l.Errorw("run stopped due errors",
			"error", err,
		)
		return nil, err
	}

	report.Config = s.StreamConfig()
	report.Stats = s.Stats()
	report.Cues = all.Cues()

	e.l.Infow("run finished",
		"frames", report.Stats.Frames,
		"keyframes", report.Stats.Keyframes,
		"dropped_units", report.Stats.DroppedUnits,
	)
	return report, nil
}

func (e *engine) configuredSinks() (sinks.Multi, error) {
	var configured sinks.Multi
	for _, name := range e.c.Sinks {
		f := findFactory(e.sinks, name)
		if f == nil {
			continue
		}
		s, err := f.New(e.req)
		if err != nil {
			closeErr := configured.Close()
			return nil, multierr.Append(fmt.Errorf("sink %s: %w", name, err), closeErr)
		}
		configured = append(configured, s)
	}
	return configured, nil
}
