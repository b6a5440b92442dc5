package sinks

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/multierr"
)

// Multi fans a frame out to every sink, stopping at the first error.
type Multi []Sink

func (m Multi) FrameReady(au *entities.AccessUnit) error {
	for _, s := range m {
		if err := s.FrameReady(au); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}

func (m Multi) Cues() []entities.Cue {
	var cues []entities.Cue
	for _, s := range m {
		if c, ok := s.(CueSink); ok {
			cues = append(cues, c.Cues()...)
		}
	}
	return cues
}

// FrameSinkCloser lets a plain frame sink take part in a Multi.
type FrameSinkCloser struct {
	entities.FrameSink
}

func (FrameSinkCloser) Close() error {
	return nil
}
