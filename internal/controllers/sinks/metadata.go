package sinks

import (
	"encoding/json"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"go.uber.org/zap"
)

// TextSender is satisfied by *webrtc.DataChannel.
type TextSender interface {
	SendText(s string) error
}

type metadataMessage struct {
	Type  string                 `json:"type"`
	Frame *entities.FrameSummary `json:"frame,omitempty"`
	Cue   *entities.Cue          `json:"cue,omitempty"`
}

// MetadataSink sends a JSON message with the summary of every frame and one
// per decoded caption. Sending is best effort, failures are only counted.
type MetadataSink struct {
	l        *zap.SugaredLogger
	m        *mapper.Mapper
	sender   TextSender
	captions *CaptionSink

	sent   uint64
	failed uint64
}

func NewMetadataSink(l *zap.SugaredLogger, m *mapper.Mapper, sender TextSender) *MetadataSink {
	return &MetadataSink{
		l:        l,
		m:        m,
		sender:   sender,
		captions: NewCaptionSink(l),
	}
}

func (s *MetadataSink) FrameReady(au *entities.AccessUnit) error {
	summary := s.m.FromAccessUnitToFrameSummary(au)
	s.send(metadataMessage{Type: "frame", Frame: &summary})

	before := len(s.captions.Cues())
	if err := s.captions.FrameReady(au); err != nil {
		return err
	}
	for _, cue := range s.captions.Cues()[before:] {
		cue := cue
		s.send(metadataMessage{Type: cue.Type, Cue: &cue})
	}
	return nil
}

func (s *MetadataSink) send(msg metadataMessage) {
	data, err := json.Marshal(msg)
	if err == nil {
		err = s.sender.SendText(string(data))
	}
	if err != nil {
		s.failed++
		if s.failed == 1 {
			s.l.Warnw("failed to send metadata",
				"type", msg.Type,
				"error", err,
			)
		}
		return
	}
	s.sent++
}

func (s *MetadataSink) Close() error {
	s.l.Infow("metadata sink closed",
		"sent", s.sent,
		"failed", s.failed,
	)
	return nil
}
