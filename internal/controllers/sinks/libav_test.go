package sinks_test

import (
	"context"
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/controllers/session"
	"github.com/flavioribeiro/donut-h264/internal/controllers/sinks"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/mapper"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLibAVSink_DecodesEveryFrame(t *testing.T) {
	if !teststreaming.Available() {
		t.Skip("ffmpeg is not available")
	}
	ffmpeg := &teststreaming.FFMPEG_H264_BASELINE_ANNEXB
	stream, err := ffmpeg.Encode(context.Background())
	require.NoError(t, err)

	l := zap.NewNop().Sugar()
	s, err := sinks.NewLibAVSink(&entities.Config{}, l, mapper.NewMapper(l))
	require.NoError(t, err)

	sess := session.NewController(session.Params{L: l}).NewSession("libav", s)
	sess.Start()
	require.NoError(t, sess.Push(stream))
	require.NoError(t, sess.Finish())
	require.NoError(t, s.Close())

	assert.Equal(t, uint64(ffmpeg.ExpectedFrames()), sess.Stats().Frames)
	assert.Equal(t, uint64(ffmpeg.ExpectedFrames()), s.Decoded())
}

func TestLibAVSink_UnknownHardwareDevice(t *testing.T) {
	l := zap.NewNop().Sugar()

	_, err := sinks.NewLibAVSink(&entities.Config{LibAVHardwareDevice: "abacus"}, l, mapper.NewMapper(l))

	assert.ErrorIs(t, err, entities.ErrFFmpegLibAVHardwareDevice)
}

func TestLibAVSink_SurvivesUndecodableFrames(t *testing.T) {
	l := zap.NewNop().Sugar()
	s, err := sinks.NewLibAVSink(&entities.Config{}, l, mapper.NewMapper(l))
	require.NoError(t, err)

	assert.NoError(t, s.FrameReady(idrUnit(0)))
	assert.NoError(t, s.Close())
}
