package teststreaming

import "github.com/flavioribeiro/donut-h264/internal/entities"

// For debugging:
// use <-loglevel verbose>

// DO NOT REMOVE THE EXTRA SPACES ON THE END OF THESE LINES
var ffmpeg_input = ` 
	-hide_banner -loglevel error -nostats 
	-f lavfi -i testsrc2=size=512x288:rate=30,format=yuv420p 
	-frames:v 60 
`

var FFMPEG_H264_BASELINE_ANNEXB = testFFmpeg{
	arguments: ffmpeg_input + ` 
		-c:v libx264 -preset veryfast -tune zerolatency -profile:v baseline 
		-x264opts keyint=30:min-keyint=30:scenecut=-1 
		-f h264 pipe:1 
	`,
	expectedFrames: 60,
	format:         entities.AnnexBFormat,
}

var FFMPEG_H264_HIGH_AUD_ANNEXB = testFFmpeg{
	arguments: ffmpeg_input + ` 
		-c:v libx264 -preset veryfast -profile:v high -bf 2 
		-x264opts keyint=30:min-keyint=30:scenecut=-1:aud=1 
		-f h264 pipe:1 
	`,
	expectedFrames: 60,
	format:         entities.AnnexBFormat,
}

var FFMPEG_H264_MPEG_TS = testFFmpeg{
	arguments: ffmpeg_input + ` 
		-c:v libx264 -preset veryfast -tune zerolatency -profile:v main 
		-x264opts keyint=30:min-keyint=30:scenecut=-1 
		-f mpegts pipe:1 
	`,
	expectedFrames: 60,
	format:         entities.MpegTSFormat,
}
