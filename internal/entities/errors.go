package entities

import (
	"errors"
	"fmt"
)

var ErrHTTPPostOnly = errors.New("you must use http POST verb")
var ErrHTTPGetOnly = errors.New("you must use http GET verb")
var ErrInvalidRequest = errors.New("invalid request")

var ErrMissingRequestParams = errors.New("RequestParams must not be nil")
var ErrMissingInput = errors.New("input must not be nil")
var ErrMissingCodecData = errors.New("avc input needs a configuration record")
var ErrUnexpectedCodecData = errors.New("only avc input takes a configuration record")
var ErrUnsupportedFormat = errors.New("unsupported input format")
var ErrMissingSource = errors.New("there is no source")
var ErrNoVideoStream = errors.New("there is no h264 video stream")

var ErrSessionNotStarted = errors.New("session has not been started")
var ErrInputOutOfRange = errors.New("input range is not available")

// Configuration record, fatal to the session
var ErrConfigRecord = errors.New("invalid avc configuration record")
var ErrConfigRecordTooShort = fmt.Errorf("%w: shorter than 7 bytes", ErrConfigRecord)
var ErrConfigRecordVersion = fmt.Errorf("%w: version is not 1", ErrConfigRecord)
var ErrConfigRecordTruncated = fmt.Errorf("%w: not enough bits", ErrConfigRecord)

// NAL units, fatal to the unit only
var ErrInvalidNAL = errors.New("invalid nal unit")
var ErrNALTooShort = fmt.Errorf("%w: too short", ErrInvalidNAL)
var ErrForbiddenBit = fmt.Errorf("%w: forbidden_zero_bit is not 0", ErrInvalidNAL)

// Bitstream fields, fatal to the unit only
var ErrMalformedBitstream = errors.New("malformed bitstream")
var ErrBitstreamTruncated = fmt.Errorf("%w: not enough bits", ErrMalformedBitstream)
var ErrValueOutOfRange = fmt.Errorf("%w: value out of range", ErrMalformedBitstream)
var ErrUnknownSequence = fmt.Errorf("%w: unknown sequence parameter set", ErrMalformedBitstream)
var ErrUnknownPicture = fmt.Errorf("%w: unknown picture parameter set", ErrMalformedBitstream)
var ErrInvalidSliceType = fmt.Errorf("%w: invalid slice_type", ErrMalformedBitstream)
var ErrEmptySEI = fmt.Errorf("%w: sei without messages", ErrMalformedBitstream)

var ErrCaptionDataTooShort = errors.New("caption data too short")

// FFmpeg/LibAV
var ErrFFMpegLibAV = errors.New("ffmpeg/libav error")
var ErrFFmpegLibAVDecoderNotFound = fmt.Errorf("%w h264 decoder not found", ErrFFMpegLibAV)
var ErrFFmpegLibAVCodecContextIsNil = fmt.Errorf("%w codec context is nil", ErrFFMpegLibAV)
var ErrFFmpegLibAVHardwareDevice = fmt.Errorf("%w unknown hardware device type", ErrFFMpegLibAV)
