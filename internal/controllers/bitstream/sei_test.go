package bitstream

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedSPS() *entities.SPS {
	return &entities.SPS{
		HRDPresent:         true,
		CpbRemovalDelayLen: 24,
		DpbOutputDelayLen:  24,
		PicStructPresent:   true,
	}
}

// seiPayload drops the NAL header of an SEI unit.
func seiPayload(messages ...[]byte) []byte {
	return teststreaming.SEI(messages...)[1:]
}

func TestParseSEI_Messages(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())
	unit := seiPayload(
		teststreaming.SEIMessage(entities.SEIPayloadTypeRecoveryPoint, []byte{0x84}),
		teststreaming.SEIMessage(entities.SEIPayloadTypeUserDataUnregistered, []byte("0123456789abcdefhello")),
	)

	sei, err := p.ParseSEI(nil, unit)

	require.NoError(t, err)
	require.Len(t, sei.Messages, 2)
	assert.Equal(t, entities.SEIPayloadTypeRecoveryPoint, sei.Messages[0].PayloadType)
	assert.Equal(t, []byte{0x84}, sei.Messages[0].Payload)
	assert.Equal(t, 21, sei.Messages[1].PayloadSize)
	assert.Nil(t, sei.Timecode)
}

func TestParseSEI_LongPayloadType(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())

	sei, err := p.ParseSEI(nil, seiPayload(teststreaming.SEIMessage(300, []byte{0x01, 0x02})))

	require.NoError(t, err)
	require.Len(t, sei.Messages, 1)
	assert.Equal(t, 300, sei.Messages[0].PayloadType)
}

func TestParseSEI_PicTimingTimecode(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())
	unit := seiPayload(teststreaming.SEIMessage(entities.SEIPayloadTypePicTiming, teststreaming.PicTiming(10, 20, 30, 12)))

	sei, err := p.ParseSEI(timedSPS(), unit)

	require.NoError(t, err)
	require.NotNil(t, sei.Timecode)
	assert.Equal(t, "10:20:30:12", sei.Timecode.String())
}

func TestParseSEI_PicTimingWithoutSequence(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())
	unit := seiPayload(teststreaming.SEIMessage(entities.SEIPayloadTypePicTiming, teststreaming.PicTiming(1, 2, 3, 4)))

	sei, err := p.ParseSEI(nil, unit)

	require.NoError(t, err)
	assert.Len(t, sei.Messages, 1)
	assert.Nil(t, sei.Timecode)
}

func TestParseSEI_PicTimingFallsBackToLastSequence(t *testing.T) {
	cache := entities.NewParameterSetCache()
	cache.PutSequence(timedSPS())
	p := NewParser(cache)
	unit := seiPayload(teststreaming.SEIMessage(entities.SEIPayloadTypePicTiming, teststreaming.PicTiming(1, 2, 3, 4)))

	sei, err := p.ParseSEI(nil, unit)

	require.NoError(t, err)
	require.NotNil(t, sei.Timecode)
	assert.Equal(t, entities.Timecode{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4}, *sei.Timecode)
}

func TestParseSEI_Truncated(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())

	_, err := p.ParseSEI(nil, []byte{0x05, 0x10, 0x01, 0x02})

	assert.ErrorIs(t, err, entities.ErrBitstreamTruncated)
}

func TestParseSEI_Empty(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())

	_, err := p.ParseSEI(nil, []byte{0x80})

	assert.ErrorIs(t, err, entities.ErrEmptySEI)
}
