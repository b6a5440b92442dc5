package demuxer_test

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/controllers/adapter"
	"github.com/flavioribeiro/donut-h264/internal/controllers/demuxer"
	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/stretchr/testify/assert"
)

func inputOf(data ...byte) *adapter.Adapter {
	a := adapter.New()
	a.Push(data)
	return a
}

func annexB() *demuxer.Demuxer {
	c := entities.DefaultStreamConfig()
	return demuxer.New(&c)
}

func packetized(lengthSize int) *demuxer.Demuxer {
	return demuxer.New(&entities.StreamConfig{Packetized: true, NALLengthSize: lengthSize})
}

func TestScanForSync_FindsStartCode(t *testing.T) {
	for k := 0; k < 6; k++ {
		data := make([]byte, k)
		for i := range data {
			data[i] = 0xAB
		}
		data = append(data, 0x00, 0x00, 0x01, 0x67, 0x42)

		offset, found := annexB().ScanForSync(inputOf(data...))

		assert.True(t, found)
		assert.Equal(t, k, offset)
	}
}

func TestScanForSync_NoStartCodeKeepsTail(t *testing.T) {
	in := inputOf(0x12, 0x34, 0x56, 0x78, 0x00, 0x00)

	offset, found := annexB().ScanForSync(in)

	assert.False(t, found)
	assert.Equal(t, in.Available()-3, offset)
}

func TestScanForSync_ShortInput(t *testing.T) {
	offset, found := annexB().ScanForSync(inputOf(0x00, 0x00))

	assert.False(t, found)
	assert.Equal(t, 0, offset)
}

func TestScanForSync_PacketizedIsAlwaysSynced(t *testing.T) {
	offset, found := packetized(4).ScanForSync(inputOf(0x12, 0x34))

	assert.True(t, found)
	assert.Equal(t, 0, offset)
}

func TestScanForPacketEnd_Packetized(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x0A}
	data = append(data, make([]byte, 10)...)

	res, size := packetized(4).ScanForPacketEnd(inputOf(data...), 0)

	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 14, size)
}

func TestScanForPacketEnd_PacketizedCorruptLength(t *testing.T) {
	res, size := packetized(4).ScanForPacketEnd(inputOf(0x00, 0x00, 0x00, 0x00, 0x65), 0)

	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 1, size)

	// longer than what is buffered
	res, size = packetized(2).ScanForPacketEnd(inputOf(0x01, 0x00, 0x65, 0x88, 0x84), 0)

	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 3, size)
}

func TestScanForPacketEnd_PacketizedNeedsLengthField(t *testing.T) {
	res, _ := packetized(4).ScanForPacketEnd(inputOf(0x00, 0x00, 0x01), 0)
	assert.Equal(t, entities.ScanNeedMoreData, res)
}

func TestScanForPacketEnd_PacketizedEmptyUnit(t *testing.T) {
	res, size := packetized(4).ScanForPacketEnd(inputOf(0x00, 0x00, 0x00, 0x00), 0)
	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 4, size)

	// a length field with nothing behind it is consumed as well
	res, size = packetized(2).ScanForPacketEnd(inputOf(0x00, 0x08), 0)
	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 2, size)
}

func TestScanForPacketEnd_PacketizedOneByteLength(t *testing.T) {
	res, size := packetized(1).ScanForPacketEnd(inputOf(0x02, 0x09, 0xF0, 0x01, 0x0A), 0)

	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 3, size)
}

func TestScanForPacketEnd_AnnexBLostSync(t *testing.T) {
	res, _ := annexB().ScanForPacketEnd(inputOf(0x00, 0x00, 0x01, 0x65, 0x88, 0x00, 0x00, 0x01, 0x41), 0)

	assert.Equal(t, entities.ScanLostSync, res)
}

func TestScanForPacketEnd_AnnexBNeedMoreData(t *testing.T) {
	in := inputOf(0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21, 0x00)

	res, _ := annexB().ScanForPacketEnd(in, 3)
	assert.Equal(t, entities.ScanNeedMoreData, res)

	// not even a start code worth of bytes after the cursor
	res, _ = annexB().ScanForPacketEnd(inputOf(0x00, 0x00, 0x01, 0x65), 3)
	assert.Equal(t, entities.ScanNeedMoreData, res)
}

func TestScanForPacketEnd_AnnexBNextStartCode(t *testing.T) {
	in := inputOf(
		0x00, 0x00, 0x01, 0x09, 0xF0,
		0x00, 0x00, 0x01, 0x65, 0x88,
	)

	res, size := annexB().ScanForPacketEnd(in, 3)

	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 5, size)
}

func TestScanForPacketEnd_AnnexBFourByteStartCode(t *testing.T) {
	in := inputOf(
		0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1E,
		0x00, 0x00, 0x00, 0x01, 0x68, 0xCE,
	)

	res, size := annexB().ScanForPacketEnd(in, 3)

	// the leading zero of the 4 byte start code stays with the unit and is
	// trimmed by the header parser
	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 8, size)
}

func TestScanForPacketEnd_ReadsConfigOnEveryCall(t *testing.T) {
	c := entities.DefaultStreamConfig()
	d := demuxer.New(&c)

	data := []byte{0x00, 0x03, 0x09, 0xF0, 0x00}

	res, _ := d.ScanForPacketEnd(inputOf(data...), 3)
	assert.Equal(t, entities.ScanNeedMoreData, res)

	c.Packetized = true
	c.NALLengthSize = 2

	res, size := d.ScanForPacketEnd(inputOf(data...), 0)
	assert.Equal(t, entities.ScanOK, res)
	assert.Equal(t, 5, size)
}
