package bitstream

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePicture(t *testing.T) {
	cache := entities.NewParameterSetCache()
	p := NewParser(cache)
	sps, err := p.ParseSequence(teststreaming.BaselineSequence().RBSP())
	require.NoError(t, err)
	cache.PutSequence(sps)
	pic := teststreaming.Picture{ID: 7, BottomFieldPicOrderInFramePresent: true, RedundantPicCntPresent: true}

	pps, err := p.ParsePicture(pic.RBSP())

	require.NoError(t, err)
	assert.Equal(t, uint(7), pps.ID)
	assert.Same(t, sps, pps.Sequence)
	assert.True(t, pps.BottomFieldPicOrderInFramePresent)
	assert.Equal(t, uint(1), pps.NumSliceGroups)
	assert.Equal(t, 26, pps.PicInitQP)
	assert.Equal(t, -2, pps.ChromaQPIndexOffset)
	assert.True(t, pps.DeblockingFilterControlPresent)
	assert.True(t, pps.RedundantPicCntPresent)
}

func TestParsePicture_SliceGroups(t *testing.T) {
	p, _ := primed(t, teststreaming.BaselineSequence(), teststreaming.Picture{})

	pps, err := p.ParsePicture(teststreaming.Picture{ID: 1, SliceGroups: 2, RedundantPicCntPresent: true}.RBSP())

	require.NoError(t, err)
	assert.Equal(t, uint(2), pps.NumSliceGroups)
	assert.Equal(t, uint(3), pps.SliceGroupMapType)
	assert.True(t, pps.RedundantPicCntPresent)
}

func TestParsePicture_UnknownSequence(t *testing.T) {
	p := NewParser(entities.NewParameterSetCache())

	_, err := p.ParsePicture(teststreaming.Picture{SequenceID: 1}.RBSP())

	assert.ErrorIs(t, err, entities.ErrUnknownSequence)
}

func TestParsePicture_Truncated(t *testing.T) {
	p, _ := primed(t, teststreaming.BaselineSequence(), teststreaming.Picture{})

	_, err := p.ParsePicture([]byte{0x80})

	assert.ErrorIs(t, err, entities.ErrBitstreamTruncated)
}
