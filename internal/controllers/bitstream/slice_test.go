package bitstream

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSliceHeader_IDR(t *testing.T) {
	seq, pic := teststreaming.BaselineSequence(), teststreaming.Picture{}
	p, cache := primed(t, seq, pic)
	pps, _ := cache.Picture(0)
	s := teststreaming.Slice{IDR: true, RefIDC: 3, Type: 7, IDRPicID: 1}

	sh, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	require.NoError(t, err)
	assert.Equal(t, s.Header(), sh.NAL)
	assert.Equal(t, entities.SliceType(7), sh.Type)
	assert.True(t, sh.Type.IsI())
	assert.Same(t, pps, sh.Picture)
	assert.Equal(t, uint(1), sh.IDRPicID)
	assert.Equal(t, uint(0), sh.FrameNum)
	assert.Equal(t, uint(0), sh.PicOrderCntType())
}

func TestParseSliceHeader_PocType0Fields(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	pic := teststreaming.Picture{BottomFieldPicOrderInFramePresent: true, RedundantPicCntPresent: true}
	p, _ := primed(t, seq, pic)
	s := teststreaming.Slice{RefIDC: 2, FirstMb: 40, FrameNum: 5, PicOrderCntLsb: 10, DeltaBottom: -1, RedundantPicCnt: 1}

	sh, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	require.NoError(t, err)
	assert.Equal(t, uint(40), sh.FirstMbInSlice)
	assert.Equal(t, uint(5), sh.FrameNum)
	assert.Equal(t, uint(10), sh.PicOrderCntLsb)
	assert.Equal(t, -1, sh.DeltaPicOrderCntBottom)
	assert.Equal(t, uint(1), sh.RedundantPicCnt)
}

func TestParseSliceHeader_FieldPicture(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	seq.FrameMbsOnly = false
	pic := teststreaming.Picture{}
	p, _ := primed(t, seq, pic)
	s := teststreaming.Slice{RefIDC: 2, Type: 1, FrameNum: 2, FieldPic: true, BottomField: true}

	sh, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	require.NoError(t, err)
	assert.True(t, sh.FieldPic)
	assert.True(t, sh.BottomField)
	assert.Equal(t, uint(2), sh.FrameNum)
}

func TestParseSliceHeader_PocType1(t *testing.T) {
	seq := teststreaming.BaselineSequence()
	seq.PicOrderCntType = 1
	pic := teststreaming.Picture{BottomFieldPicOrderInFramePresent: true}
	p, _ := primed(t, seq, pic)
	s := teststreaming.Slice{RefIDC: 2, Delta: [2]int{3, -4}}

	sh, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	require.NoError(t, err)
	assert.Equal(t, uint(1), sh.PicOrderCntType())
	assert.Equal(t, [2]int{3, -4}, sh.DeltaPicOrderCnt)
}

func TestParseSliceHeader_InvalidSliceType(t *testing.T) {
	seq, pic := teststreaming.BaselineSequence(), teststreaming.Picture{}
	p, _ := primed(t, seq, pic)
	s := teststreaming.Slice{Type: 10}

	_, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	assert.ErrorIs(t, err, entities.ErrInvalidSliceType)
}

func TestParseSliceHeader_UnknownPicture(t *testing.T) {
	seq, pic := teststreaming.BaselineSequence(), teststreaming.Picture{}
	p, _ := primed(t, seq, pic)
	s := teststreaming.Slice{PictureID: 4}

	_, err := p.ParseSliceHeader(s.RBSP(seq, pic), s.Header())

	assert.ErrorIs(t, err, entities.ErrUnknownPicture)
}

func TestParseSliceHeader_Truncated(t *testing.T) {
	p, _ := primed(t, teststreaming.BaselineSequence(), teststreaming.Picture{})

	// first_mb_in_slice, slice_type and pic_parameter_set_id then a partial pic_order_cnt_lsb
	_, err := p.ParseSliceHeader([]byte{0xE0}, entities.NalUnit{Type: entities.CodedSliceNonIDRPicture})

	assert.ErrorIs(t, err, entities.ErrBitstreamTruncated)
}
