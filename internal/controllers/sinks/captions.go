package sinks

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	gocaption "github.com/szatmary/gocaption"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CaptionSink decodes the EIA-608 captions carried as CEA-708 cc_data in the
// user data registered SEI messages (ANSI/SCTE 128-1).
type CaptionSink struct {
	l     *zap.SugaredLogger
	frame gocaption.EIA608Frame
	cues  []entities.Cue
}

func NewCaptionSink(l *zap.SugaredLogger) *CaptionSink {
	return &CaptionSink{l: l}
}

func (s *CaptionSink) FrameReady(au *entities.AccessUnit) error {
	for _, msg := range au.SEI {
		if msg.PayloadType != entities.SEIPayloadTypeUserDataRegisteredITUT35 {
			continue
		}

		text, err := s.decode(msg.Payload)
		if err != nil {
			s.l.Warnw("skipping caption data",
				"index", au.Index,
				"error", err,
			)
			continue
		}
		if text == "" {
			continue
		}

		cue := entities.Cue{
			Frame: au.Index,
			Text:  text,
			Type:  "captions",
		}
		if au.Timecode != nil {
			cue.Timecode = au.Timecode.String()
		}
		s.cues = append(s.cues, cue)
		s.l.Infow("caption",
			"index", cue.Frame,
			"text", cue.Text,
		)
	}
	return nil
}

// itu_t_t35 country and provider codes, user identifier, user data type,
// cc_count and em_data
const minCaptionDataSize = 10

func (s *CaptionSink) decode(payload []byte) (string, error) {
	if len(payload) < minCaptionDataSize {
		return "", fmt.Errorf("%w: %d bytes", entities.ErrCaptionDataTooShort, len(payload))
	}
	cea708, err := gocaption.CEA708ToCCData(payload)
	if err != nil {
		return "", err
	}
	for _, c := range cea708 {
		ready, err := s.frame.Decode(c)
		if err != nil {
			return "", err
		}
		if ready {
			return s.frame.String(), nil
		}
	}
	return "", nil
}

func (s *CaptionSink) Cues() []entities.Cue {
	return s.cues
}

func (s *CaptionSink) Close() error {
	return nil
}

type captionFactory struct {
	l *zap.SugaredLogger
}

type CaptionFactoryParams struct {
	fx.In
	L *zap.SugaredLogger
}

type ResultCaptionFactory struct {
	fx.Out
	CaptionFactory Factory `group:"sinks"`
}

func NewCaptionFactory(p CaptionFactoryParams) ResultCaptionFactory {
	return ResultCaptionFactory{
		CaptionFactory: &captionFactory{l: p.L},
	}
}

func (f *captionFactory) Name() string {
	return "captions"
}

func (f *captionFactory) New(req *entities.RequestParams) (Sink, error) {
	return NewCaptionSink(f.l.With("sink", f.Name(), "request", req.Name)), nil
}
