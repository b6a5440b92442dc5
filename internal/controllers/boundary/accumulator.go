package boundary

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

// Accumulator owns the access unit in progress. It is not safe for
// concurrent use, a session drives it from a single goroutine.
type Accumulator struct {
	factory entities.FrameFactory
	sink    entities.FrameSink

	current *entities.AccessUnit
	closed  uint64
}

func NewAccumulator(factory entities.FrameFactory, sink entities.FrameSink) *Accumulator {
	a := &Accumulator{factory: factory, sink: sink}
	a.current = a.newFrame()
	return a
}

func (a *Accumulator) newFrame() *entities.AccessUnit {
	au := a.factory.NewFrame()
	au.Index = a.closed
	return au
}

func (a *Accumulator) Attach(nal []byte) {
	a.current.NALs = append(a.current.NALs, nal)
}

func (a *Accumulator) AttachSEI(sei *entities.SEI) {
	a.current.SEI = append(a.current.SEI, sei.Messages...)
	if sei.Timecode != nil && a.current.Timecode == nil {
		a.current.Timecode = sei.Timecode
	}
}

func (a *Accumulator) SetPrimary(slice *entities.SliceHeader, keyframe bool) {
	a.current.Primary = slice
	a.current.Keyframe = keyframe
}

// Close hands the unit in progress to the sink when it holds at least one
// NAL unit and starts a fresh one. It returns the delivered unit, or nil.
func (a *Accumulator) Close(parameterSets [][]byte) (*entities.AccessUnit, error) {
	if a.current.IsEmpty() {
		// SEI seen before any slice belongs to the next unit
		return nil, nil
	}

	au := a.current
	au.ParameterSets = parameterSets
	a.closed++
	a.current = a.newFrame()

	if err := a.sink.FrameReady(au); err != nil {
		return au, fmt.Errorf("frame %d: %w", au.Index, err)
	}
	return au, nil
}

// Reset drops the unit in progress without delivering it.
func (a *Accumulator) Reset() {
	a.current = a.newFrame()
}

func (a *Accumulator) Current() *entities.AccessUnit {
	return a.current
}

// Closed returns how many units were handed to the sink.
func (a *Accumulator) Closed() uint64 {
	return a.closed
}

// DefaultFactory allocates empty access units.
type DefaultFactory struct{}

func (DefaultFactory) NewFrame() *entities.AccessUnit {
	return &entities.AccessUnit{}
}
