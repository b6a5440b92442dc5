package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astits"
	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MpegTSSource pushes the PES payloads of the first H.264 stream announced
// by a PMT.
type MpegTSSource struct {
	l *zap.SugaredLogger
}

type MpegTSParams struct {
	fx.In
	L *zap.SugaredLogger
}

type ResultMpegTSSource struct {
	fx.Out
	MpegTSSource Source `group:"sources"`
}

func NewMpegTSSource(p MpegTSParams) ResultMpegTSSource {
	return ResultMpegTSSource{
		MpegTSSource: &MpegTSSource{l: p.L},
	}
}

func (c *MpegTSSource) Match(req *entities.RequestParams) bool {
	return req.Format == entities.MpegTSFormat
}

func (c *MpegTSSource) Feed(ctx context.Context, req *entities.RequestParams, s *session.Session) error {
	// ref https://tsduck.io/download/docs/mpegts-introduction.pdf
	mpegTSDemuxer := astits.NewDemuxer(ctx, req.Input)

	var pid uint16
	found := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d, err := mpegTSDemuxer.NextData()
		if err != nil {
			if !errors.Is(err, astits.ErrNoMorePackets) {
				return fmt.Errorf("mpegts: demuxing: %w", err)
			}
			if !found {
				return entities.ErrNoVideoStream
			}
			return s.Finish()
		}

		if d.PMT != nil && !found {
			if pid, found = videoPID(d.PMT); found {
				c.l.Infow("h264 stream found",
					"pid", pid,
					"program", d.PMT.ProgramNumber,
				)
			}
		}

		if !found || d.PES == nil || d.PID != pid {
			continue
		}
		if discontinuity(d) {
			c.l.Infow("discontinuity, dropping buffered data",
				"pid", pid,
			)
			s.Flush()
		}
		if err := s.Push(d.PES.Data); err != nil {
			return err
		}
	}
}

func videoPID(pmt *astits.PMTData) (uint16, bool) {
	for _, es := range pmt.ElementaryStreams {
		if es.StreamType == astits.StreamTypeH264Video {
			return es.ElementaryPID, true
		}
	}
	return 0, false
}

func discontinuity(d *astits.DemuxerData) bool {
	return d.FirstPacket != nil &&
		d.FirstPacket.AdaptationField != nil &&
		d.FirstPacket.AdaptationField.DiscontinuityIndicator
}
