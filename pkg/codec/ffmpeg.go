package codec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes name with args and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// FFmpeg implements VideoCodec by shelling out to the ffmpeg binary.
type FFmpeg struct {
	bin string
	run Runner
}

func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{bin: bin, run: execRunner}
}

// WithRunner replaces the process runner.
func (f *FFmpeg) WithRunner(r Runner) *FFmpeg {
	f.run = r
	return f
}

// ExtractPosterFrame grabs one frame at offset. Streams shorter than offset
// produce no output, in which case the first frame is taken instead.
func (f *FFmpeg) ExtractPosterFrame(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	frame, err := f.frameAt(ctx, path, offset)
	if err == nil || offset == 0 || ctx.Err() != nil {
		return frame, err
	}

	zerolog.Ctx(ctx).Debug().Err(err).Dur("offset", offset).Msg("no frame at offset, retrying at start")
	return f.frameAt(ctx, path, 0)
}

func (f *FFmpeg) frameAt(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-c:v", "libwebp",
		"-f", "webp",
		"pipe:1",
	}
	stdout, stderr, err := f.run(ctx, f.bin, args...)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	if len(stdout) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoFrame, offset)
	}
	return stdout, nil
}
