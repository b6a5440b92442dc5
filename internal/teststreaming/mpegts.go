package teststreaming

import (
	"bytes"
	"context"

	"github.com/asticode/go-astits"
)

// VideoPID is the elementary PID the muxed streams are written to.
const VideoPID = 256

// MpegTS muxes every payload into its own PES packet of an H.264 stream.
func MpegTS(payloads ...[]byte) ([]byte, error) {
	return MpegTSStream(astits.StreamTypeH264Video, payloads...)
}

// MpegTSStream is MpegTS with another stream type announced in the PMT.
func MpegTSStream(streamType astits.StreamType, payloads ...[]byte) ([]byte, error) {
	return mpegTS(streamType, -1, payloads...)
}

// MpegTSDiscontinuity is MpegTS with the discontinuity indicator set on the
// first packet of payloads[at].
func MpegTSDiscontinuity(at int, payloads ...[]byte) ([]byte, error) {
	return mpegTS(astits.StreamTypeH264Video, at, payloads...)
}

func mpegTS(streamType astits.StreamType, discontinuity int, payloads ...[]byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	mx := astits.NewMuxer(context.Background(), buf)
	if err := mx.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: VideoPID,
		StreamType:    streamType,
	}); err != nil {
		return nil, err
	}
	mx.SetPCRPID(VideoPID)

	for i, p := range payloads {
		var af *astits.PacketAdaptationField
		if i == discontinuity {
			af = &astits.PacketAdaptationField{DiscontinuityIndicator: true}
		}
		if _, err := mx.WriteData(&astits.MuxerData{
			PID:             VideoPID,
			AdaptationField: af,
			PES: &astits.PESData{
				Header: &astits.PESHeader{
					OptionalHeader: &astits.PESOptionalHeader{
						MarkerBits:      2,
						PTSDTSIndicator: astits.PTSDTSIndicatorOnlyPTS,
						PTS:             &astits.ClockReference{Base: int64(i) * 3000},
					},
					StreamID: 0xE0,
				},
				Data: p,
			},
		}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
