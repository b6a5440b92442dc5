// Package session drives the framing of one H.264 elementary stream: bytes
// are pushed in, NAL units are demultiplexed, parsed and grouped into access
// units which are handed to a frame sink.
package session

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/controllers/adapter"
	"github.com/flavioribeiro/donut-h264/internal/controllers/avcc"
	"github.com/flavioribeiro/donut-h264/internal/controllers/bitstream"
	"github.com/flavioribeiro/donut-h264/internal/controllers/boundary"
	"github.com/flavioribeiro/donut-h264/internal/controllers/demuxer"
	"github.com/flavioribeiro/donut-h264/internal/controllers/nal"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FieldParserFactory builds the bitstream field parser of a session around
// its parameter set cache.
type FieldParserFactory func(cache *entities.ParameterSetCache) entities.FieldParser

func DefaultFieldParser(cache *entities.ParameterSetCache) entities.FieldParser {
	return bitstream.NewParser(cache)
}

type Params struct {
	fx.In
	L *zap.SugaredLogger

	FieldParser  FieldParserFactory    `optional:"true"`
	FrameFactory entities.FrameFactory `optional:"true"`
}

// Controller creates sessions sharing the same logger and collaborators.
type Controller struct {
	p Params
}

func NewController(p Params) *Controller {
	if p.FieldParser == nil {
		p.FieldParser = DefaultFieldParser
	}
	if p.FrameFactory == nil {
		p.FrameFactory = boundary.DefaultFactory{}
	}
	return &Controller{p}
}

func (c *Controller) NewSession(name string, sink entities.FrameSink) *Session {
	return &Session{
		l:         c.p.L.With("session", name),
		newParser: c.p.FieldParser,
		factory:   c.p.FrameFactory,
		sink:      sink,
	}
}

type Stats struct {
	Units        uint64 `json:"units"`
	Frames       uint64 `json:"frames"`
	Keyframes    uint64 `json:"keyframes"`
	DroppedUnits uint64 `json:"dropped_units"`
	LostSync     uint64 `json:"lost_sync"`
}

// Session holds the state of one stream between Start and Stop. It is not
// safe for concurrent use.
type Session struct {
	l         *zap.SugaredLogger
	newParser FieldParserFactory
	factory   entities.FrameFactory
	sink      entities.FrameSink

	started bool
	config  entities.StreamConfig
	cache   *entities.ParameterSetCache
	parser  entities.FieldParser
	input   *adapter.Adapter
	demuxer *demuxer.Demuxer
	acc     *boundary.Accumulator
	state   boundary.State
	synced  bool
	stats   Stats
}

// Start resets the session to an Annex-B stream with an empty parameter set
// cache.
func (s *Session) Start() {
	s.config = entities.DefaultStreamConfig()
	s.cache = entities.NewParameterSetCache()
	s.parser = s.newParser(s.cache)
	s.input = adapter.New()
	s.demuxer = demuxer.New(&s.config)
	s.acc = boundary.NewAccumulator(s.factory, s.sink)
	s.state = boundary.State{}
	s.synced = false
	s.stats = Stats{}
	s.started = true

	s.l.Debugw("session started")
}

// SetCodecData applies an avcC configuration record, switching the stream to
// length prefixed mode. A bad record is fatal to the session.
func (s *Session) SetCodecData(record []byte) error {
	if !s.started {
		return entities.ErrSessionNotStarted
	}

	config, err := avcc.Parse(record, s.parser, s.cache)
	if err != nil {
		s.l.Errorw("invalid codec data",
			"error", err,
		)
		return err
	}
	s.config = config
	s.synced = true

	sequences, pictures := s.cache.Len()
	s.l.Infow("codec data applied",
		"nal_length_size", config.NALLengthSize,
		"sps", sequences,
		"pps", pictures,
	)
	return nil
}

// Push appends data to the input and frames every complete unit. Errors are
// only returned for a stopped session or a failing sink, bad units are
// dropped and counted. Length prefixed input must be pushed in whole units,
// a length field running past the buffered bytes is treated as corrupt.
func (s *Session) Push(data []byte) error {
	if !s.started {
		return entities.ErrSessionNotStarted
	}
	s.input.Push(data)
	return s.demux(false)
}

// Finish handles the bytes left at the end of the stream as a last unit and
// delivers the unit in progress.
func (s *Session) Finish() error {
	if !s.started {
		return entities.ErrSessionNotStarted
	}
	if err := s.demux(true); err != nil {
		return err
	}
	s.state = boundary.State{}
	return s.closeUnit(boundary.NoBoundary)
}

// Flush drops buffered bytes and the unit in progress. Parameter sets and
// the stream configuration are kept.
func (s *Session) Flush() {
	if !s.started {
		return
	}
	s.input.Clear()
	s.acc.Reset()
	s.state = boundary.State{}
	s.synced = s.config.Packetized
}

// Stop releases the session state, the unit in progress is discarded.
func (s *Session) Stop() {
	if !s.started {
		return
	}
	s.l.Debugw("session stopped",
		"units", s.stats.Units,
		"frames", s.stats.Frames,
		"dropped_units", s.stats.DroppedUnits,
	)

	s.started = false
	s.cache.Reset()
	s.input.Clear()
	s.acc.Reset()
	s.cache = nil
	s.parser = nil
	s.input = nil
	s.acc = nil
	s.state = boundary.State{}
}

func (s *Session) Stats() Stats {
	return s.stats
}

// StreamConfig returns the configuration the demuxer currently reads.
func (s *Session) StreamConfig() entities.StreamConfig {
	return s.config
}

func (s *Session) demux(eos bool) error {
	for {
		if !s.synced {
			offset, found := s.demuxer.ScanForSync(s.input)
			s.input.Flush(offset)
			if !found {
				if eos {
					s.input.Clear()
				}
				return nil
			}
			s.synced = true
		}

		prefix := s.config.NALLengthSize
		cursor := 0
		if !s.config.Packetized {
			cursor = entities.StartCodeSize
		}

		result, size := s.demuxer.ScanForPacketEnd(s.input, cursor)
		switch result {
		case entities.ScanLostSync:
			s.stats.LostSync++
			s.l.Debugw("lost sync, empty unit dropped")
			s.input.Flush(entities.StartCodeSize)
			s.synced = s.config.Packetized
			continue

		case entities.ScanNeedMoreData:
			if !eos {
				return nil
			}
			if s.input.Available() <= prefix {
				s.input.Clear()
				return nil
			}
			size = s.input.Available()
		}

		unit, err := s.input.Take(size)
		if err != nil {
			return fmt.Errorf("taking %s unit: %w", result, err)
		}
		if err := s.handleUnit(unit, prefix); err != nil {
			return err
		}
	}
}

func (s *Session) handleUnit(unit []byte, prefix int) error {
	s.stats.Units++

	header, payload, err := nal.ParseHeader(unit, prefix)
	if err != nil {
		s.drop(header, err)
		return nil
	}
	raw := nal.TrimTrailingZeros(unit[prefix:])

	var slice *entities.SliceHeader
	if header.Type.IsSlice() {
		if slice, err = s.parser.ParseSliceHeader(payload, header); err != nil {
			s.drop(header, err)
			return nil
		}
	}

	next, decision := boundary.Decide(s.state, boundary.Input{Header: header, Slice: slice})
	s.state = next

	if decision.CloseBefore {
		if err := s.closeUnit(decision.Reason); err != nil {
			return err
		}
	}
	if decision.BecomePrimary {
		s.acc.SetPrimary(slice, decision.Keyframe)
	}
	if decision.Attach {
		s.acc.Attach(raw)
	}

	switch header.Type {
	case entities.SequenceParameterSet:
		sps, err := s.parser.ParseSequence(payload)
		if err != nil {
			s.drop(header, err)
			return nil
		}
		sps.Raw = raw
		s.cache.PutSequence(sps)

	case entities.PictureParameterSet:
		pps, err := s.parser.ParsePicture(payload)
		if err != nil {
			s.drop(header, err)
			return nil
		}
		pps.Raw = raw
		s.cache.PutPicture(pps)

	case entities.SupplementalEnhancementInformation:
		sei, err := s.parser.ParseSEI(s.state.Primary.Sequence(), payload)
		if err != nil {
			s.drop(header, err)
			return nil
		}
		s.acc.AttachSEI(sei)
	}

	return nil
}

func (s *Session) closeUnit(reason boundary.BoundaryReason) error {
	sps, pps := s.cache.ParameterSets()
	au, err := s.acc.Close(append(sps, pps...))
	if au == nil {
		return err
	}

	s.stats.Frames++
	if au.Keyframe {
		s.stats.Keyframes++
	}
	s.l.Debugw("access unit closed",
		"index", au.Index,
		"reason", reason.String(),
		"nals", len(au.NALs),
		"keyframe", au.Keyframe,
	)

	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

func (s *Session) drop(header entities.NalUnit, err error) {
	s.stats.DroppedUnits++
	s.l.Warnw("dropping nal unit",
		"type", header.Type.String(),
		"error", err,
	)
}
