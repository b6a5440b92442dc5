package entities

import (
	"fmt"
	"io"

	"github.com/pion/webrtc/v3"
)

const (
	MetadataChannelID string = "metadata"
)

type InputFormat string

const (
	// AnnexBFormat is a start code delimited elementary stream.
	AnnexBFormat InputFormat = "annexb"
	// AVCFormat is a length prefixed elementary stream, it needs a
	// configuration record (avcC) to be usable.
	AVCFormat InputFormat = "avc"
	// MpegTSFormat carries the elementary stream in the PES payloads of the
	// first H.264 PID found in the PMT.
	MpegTSFormat InputFormat = "mpegts"
)

type RequestParams struct {
	Input     io.Reader
	Name      string
	Format    InputFormat
	CodecData []byte
}

func (p *RequestParams) Valid() error {
	if p == nil {
		return ErrMissingRequestParams
	}

	if p.Input == nil {
		return ErrMissingInput
	}

	switch p.Format {
	case AnnexBFormat, MpegTSFormat:
		if len(p.CodecData) > 0 {
			return fmt.Errorf("%w: %q", ErrUnexpectedCodecData, p.Format)
		}
	case AVCFormat:
		if len(p.CodecData) == 0 {
			return ErrMissingCodecData
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, p.Format)
	}

	return nil
}

func (p *RequestParams) String() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("RequestParams %v (%v, codec data %d bytes)", p.Name, p.Format, len(p.CodecData))
}

// PlayRequestParams is the body of a WebRTC preview request. The stream is
// sent inline, base64 encoded as encoding/json does for byte slices.
type PlayRequestParams struct {
	Offer     webrtc.SessionDescription `json:"offer"`
	Format    InputFormat               `json:"format"`
	CodecData []byte                    `json:"codec_data,omitempty"`
	Stream    []byte                    `json:"stream"`
}

// StreamConfig is the per session container configuration. It starts as
// Annex-B and is switched to length prefixed mode by a configuration record.
type StreamConfig struct {
	Packetized    bool `json:"packetized"`
	NALLengthSize int  `json:"nal_length_size"`
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Packetized:    false,
		NALLengthSize: StartCodeSize,
	}
}

type ScanResult int

const (
	ScanOK ScanResult = iota
	ScanNeedMoreData
	ScanLostSync
)

func (r ScanResult) String() string {
	switch r {
	case ScanOK:
		return "ok"
	case ScanNeedMoreData:
		return "need_more_data"
	case ScanLostSync:
		return "lost_sync"
	}
	return fmt.Sprintf("scan_result_%d", int(r))
}

// AccessUnit is one decodable frame: the ordered slice NAL units of a coded
// picture together with its primary slice header.
type AccessUnit struct {
	// Index is the position of the unit in the session, starting at zero.
	Index    uint64
	Primary  *SliceHeader
	Keyframe bool
	// NALs are the attached slice units without start code or length field,
	// header byte included.
	NALs     [][]byte
	SEI      []SEIMessage
	Timecode *Timecode
	// ParameterSets holds the raw SPS and PPS units active when the unit was
	// closed.
	ParameterSets [][]byte
}

func (au *AccessUnit) HasPrimary() bool {
	return au != nil && au.Primary != nil
}

func (au *AccessUnit) IsEmpty() bool {
	return au == nil || len(au.NALs) == 0
}

// Size returns the number of NAL bytes attached to the unit.
func (au *AccessUnit) Size() int {
	n := 0
	for _, p := range au.NALs {
		n += len(p)
	}
	return n
}

// Input is a byte addressable buffered input as seen by the demultiplexer.
type Input interface {
	Available() int
	Copy(offset, size int) ([]byte, error)
	// MaskedScanUint32 returns the offset of the first big endian 32 bit word
	// w with w&mask == pattern that lies entirely inside [offset, offset+size),
	// or -1.
	MaskedScanUint32(mask, pattern uint32, offset, size int) int
}

// FieldParser is the bitstream field parser. It receives unit payloads with
// the NAL header already removed.
type FieldParser interface {
	ParseSequence(payload []byte) (*SPS, error)
	ParsePicture(payload []byte) (*PPS, error)
	ParseSliceHeader(payload []byte, nal NalUnit) (*SliceHeader, error)
	ParseSEI(active *SPS, payload []byte) (*SEI, error)
}

// FrameFactory builds the container of a new in-progress access unit.
type FrameFactory interface {
	NewFrame() *AccessUnit
}

// FrameSink receives completed access units.
type FrameSink interface {
	FrameReady(au *AccessUnit) error
}

type FrameSinkFunc func(au *AccessUnit) error

func (f FrameSinkFunc) FrameReady(au *AccessUnit) error {
	return f(au)
}

type Config struct {
	HTTPPort      int32  `required:"true" default:"8080"`
	HTTPHost      string `required:"true" default:"0.0.0.0"`
	PprofHTTPPort int32  `required:"true" default:"6060"`
	EnablePprof   bool   `default:"false"`

	Debug bool `default:"false"`

	// ReadBufferSizeBytes is how much is read from a source before the
	// session is pushed.
	ReadBufferSizeBytes int `required:"true" default:"4096"`
	// MaxParseBodyBytes caps the body accepted by the /parse and /doSignaling
	// handlers.
	MaxParseBodyBytes int64 `required:"true" default:"33554432"`

	// Sinks lists the frame sinks to enable: log, captions, libav.
	Sinks []string `required:"true" default:"log,captions"`

	// LibAVHardwareDevice is a libav hwdevice type name (vdpau, vaapi, cuda...),
	// empty means software decoding.
	LibAVHardwareDevice string `default:""`

	TCPICEPort         int      `required:"true" default:"8081"`
	UDPICEPort         int      `required:"true" default:"8081"`
	ICEReadBufferSize  int      `required:"true" default:"8"`
	ICEExternalIPsDNAT []string `required:"true" default:"127.0.0.1"`
	EnableICEMux       bool     `default:"false"`
	StunServers        []string `required:"true" default:"stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302"`

	WebRTCTrackID  string `required:"true" default:"video"`
	WebRTCStreamID string `required:"true" default:"donut-h264"`
	// WebRTCSampleDurationMS is the duration of every sample written to the
	// track and the pace the stream is played at.
	WebRTCSampleDurationMS int `required:"true" default:"33"`
}

func (c *Config) SinkEnabled(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Cue is a caption decoded from the user data SEI of an access unit.
type Cue struct {
	Frame    uint64 `json:"frame"`
	Timecode string `json:"timecode,omitempty"`
	Text     string `json:"text"`
	Type     string `json:"type"`
}

// FrameSummary is the JSON view of a completed access unit.
type FrameSummary struct {
	Index          uint64 `json:"index"`
	Keyframe       bool   `json:"keyframe"`
	NALUnitType    string `json:"nal_unit_type,omitempty"`
	SliceType      string `json:"slice_type,omitempty"`
	FrameNum       uint   `json:"frame_num"`
	PicOrderCntLsb uint   `json:"pic_order_cnt_lsb"`
	FieldPic       bool   `json:"field_pic,omitempty"`
	BottomField    bool   `json:"bottom_field,omitempty"`
	Slices         int    `json:"slices"`
	Size           int    `json:"size"`
	SEIPayloads    []int  `json:"sei_payload_types,omitempty"`
	Timecode       string `json:"timecode,omitempty"`
	Codec          string `json:"codec,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}
