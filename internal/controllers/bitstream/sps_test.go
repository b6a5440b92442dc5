package bitstream

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSequence_Baseline(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())

	sps, err := p.ParseSequence(teststreaming.BaselineSequence().RBSP())

	require.NoError(t, err)
	assert.Equal(t, uint(0), sps.ID)
	assert.Equal(t, byte(66), sps.ProfileIDC)
	assert.Equal(t, uint(4), sps.Log2MaxFrameNum)
	assert.Equal(t, uint(0), sps.PicOrderCntType)
	assert.Equal(t, uint(6), sps.Log2MaxPicOrderCntLsb)
	assert.True(t, sps.FrameMbsOnly)
	assert.Equal(t, 320, sps.Width)
	assert.Equal(t, 240, sps.Height)
	assert.Equal(t, "avc1.42C01E", sps.CodecString())
	assert.False(t, sps.TimingInfoPresent)
}

func TestParseSequence_HighProfileInterlaced(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	seq.ID = 3
	seq.Profile = 100
	seq.FrameMbsOnly = false
	seq.PicOrderCntType = 1
	p := NewParser(entities.NewParameterSetCache())

	sps, err := p.ParseSequence(seq.RBSP())

	require.NoError(t, err)
	assert.Equal(t, uint(3), sps.ID)
	assert.Equal(t, uint(1), sps.ChromaFormatIDC)
	assert.Equal(t, uint(1), sps.PicOrderCntType)
	assert.Equal(t, []int{2}, sps.OffsetForRefFrame)
	assert.False(t, sps.FrameMbsOnly)
	assert.Equal(t, 480, sps.Height)
}

func TestParseSequence_TimingAndHRD(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	seq.Timing = true
	seq.HRD = true
	seq.PicStructPresent = true
	seq.CpbRemovalDelayLen = 24
	seq.DpbOutputDelayLen = 24
	p := NewParser(entities.NewParameterSetCache())

	sps, err := p.ParseSequence(seq.RBSP())

	require.NoError(t, err)
	assert.True(t, sps.TimingInfoPresent)
	assert.Equal(t, uint(1001), sps.NumUnitsInTick)
	assert.Equal(t, uint(60000), sps.TimeScale)
	assert.True(t, sps.HRDPresent)
	assert.Equal(t, 24, sps.CpbRemovalDelayLen)
	assert.Equal(t, 24, sps.DpbOutputDelayLen)
	assert.True(t, sps.PicStructPresent)
}

func TestParseSequence_Truncated(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())
	rbsp := teststreaming.BaselineSequence().RBSP()

	_, err := p.ParseSequence(rbsp[:4])

	assert.ErrorIs(t, err, entities.ErrBitstreamTruncated)
	assert.ErrorIs(t, err, entities.ErrMalformedBitstream)
}

func TestParseSequence_IDOutOfRange(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	seq.ID = 32
	p := NewParser(entities.NewParameterSetCache())

	_, err := p.ParseSequence(seq.RBSP())

	assert.ErrorIs(t, err, entities.ErrValueOutOfRange)
}
