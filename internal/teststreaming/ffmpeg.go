package teststreaming

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/flavioribeiro/donut-h264/internal/entities"
)

const (
	ffmpeg_timeout = 30 * time.Second
)

type FFmpeg interface {
	Encode(ctx context.Context) ([]byte, error)
	ExpectedFrames() int
	Format() entities.InputFormat
}

type testFFmpeg struct {
	arguments      string
	expectedFrames int
	format         entities.InputFormat
}

// Available reports whether an ffmpeg binary is in the PATH, tests relying
// on real encoders are skipped otherwise.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (t *testFFmpeg) Encode(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, ffmpeg_timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmdExec := exec.CommandContext(ctx, "ffmpeg", prepareFFmpegParameters(t.arguments)...)
	cmdExec.Stdout = &stdout
	cmdExec.Stderr = &stderr

	if err := cmdExec.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (t *testFFmpeg) ExpectedFrames() int {
	return t.expectedFrames
}

func (t *testFFmpeg) Format() entities.InputFormat {
	return t.format
}

func prepareFFmpegParameters(cmd string) []string {
	result := []string{}

	for _, item := range strings.Split(cmd, " ") {
		item = strings.ReplaceAll(item, "\\", "")
		item = strings.ReplaceAll(item, "\n", "")
		item = strings.ReplaceAll(item, "\t", "")
		item = strings.ReplaceAll(item, " ", "")
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}
