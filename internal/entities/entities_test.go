package entities

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestParams_Valid(t *testing.T) {
	in := bytes.NewReader(nil)

	tests := []struct {
		name string
		req  *RequestParams
		err  error
	}{
		{name: "nil", req: nil, err: ErrMissingRequestParams},
		{name: "no input", req: &RequestParams{Format: AnnexBFormat}, err: ErrMissingInput},
		{name: "annexb", req: &RequestParams{Input: in, Format: AnnexBFormat}},
		{name: "mpegts", req: &RequestParams{Input: in, Format: MpegTSFormat}},
		{name: "avc", req: &RequestParams{Input: in, Format: AVCFormat, CodecData: []byte{1}}},
		{name: "avc without codec data", req: &RequestParams{Input: in, Format: AVCFormat}, err: ErrMissingCodecData},
		{name: "annexb with codec data", req: &RequestParams{Input: in, Format: AnnexBFormat, CodecData: []byte{1}}, err: ErrUnexpectedCodecData},
		{name: "unknown format", req: &RequestParams{Input: in, Format: "mkv"}, err: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Valid()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParameterSetCache(t *testing.T) {
	c := NewParameterSetCache()

	first := &SPS{ID: 1, Raw: []byte{0x67, 0x01}}
	c.PutSequence(&SPS{ID: 0, Raw: []byte{0x67, 0x00}})
	c.PutSequence(first)
	c.PutPicture(&PPS{ID: 3, Raw: []byte{0x68, 0x03}})

	last, ok := c.LastSequence()
	assert.True(t, ok)
	assert.Same(t, first, last)

	replaced := &SPS{ID: 1, Raw: []byte{0x67, 0x11}}
	c.PutSequence(replaced)
	got, ok := c.Sequence(1)
	assert.True(t, ok)
	assert.Same(t, replaced, got)

	sequences, pictures := c.Len()
	assert.Equal(t, 2, sequences)
	assert.Equal(t, 1, pictures)

	sps, pps := c.ParameterSets()
	assert.Equal(t, [][]byte{{0x67, 0x00}, {0x67, 0x11}}, sps)
	assert.Equal(t, [][]byte{{0x68, 0x03}}, pps)

	c.Reset()
	_, ok = c.Picture(3)
	assert.False(t, ok)
	_, ok = c.LastSequence()
	assert.False(t, ok)
}

func TestConfig_SinkEnabled(t *testing.T) {
	c := &Config{Sinks: []string{"log", "captions"}}

	assert.True(t, c.SinkEnabled("captions"))
	assert.False(t, c.SinkEnabled("libav"))
}

func TestSliceType_String(t *testing.T) {
	assert.Equal(t, "P", SliceType(5).String())
	assert.Equal(t, "I", SliceType(2).String())
	assert.True(t, SliceType(9).IsSI())
}

func TestSPS_CodecString(t *testing.T) {
	sps := &SPS{ProfileIDC: 100, ConstraintFlags: 0, LevelIDC: 40}

	assert.Equal(t, "avc1.640028", sps.CodecString())
}
