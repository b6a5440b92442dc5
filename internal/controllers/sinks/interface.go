// Package sinks holds the consumers of completed access units.
package sinks

import "github.com/flavioribeiro/donut-h264/internal/entities"

type Sink interface {
	entities.FrameSink
	Close() error
}

// Factory builds a sink for one run. Factories are provided in the "sinks"
// group and enabled by name through Config.Sinks.
type Factory interface {
	Name() string
	New(req *entities.RequestParams) (Sink, error)
}

// CueSink is implemented by sinks that decode captions.
type CueSink interface {
	Cues() []entities.Cue
}
