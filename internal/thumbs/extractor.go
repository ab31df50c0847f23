package thumbs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cliphub/backend/internal/logging"
)

// CommandRunner executes external commands and returns combined output bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// ExtractError reports that both the primary and the fallback capture failed.
// It wraps the last underlying cause.
type ExtractError struct {
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract thumbnail: %v", e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extractor produces a still image from a video file by shelling out to
// ffmpeg. The primary path probes the duration and captures the frame at
// min(1s, duration); if anything in that path fails it falls back to a plain
// first-frame capture. One fallback, no retries.
type Extractor struct {
	FFmpegPath  string
	FFprobePath string
	Run         CommandRunner
	Timeout     time.Duration
}

// NewExtractor constructs an Extractor around the provided binaries.
func NewExtractor(ffmpegPath, ffprobePath string, timeout time.Duration) *Extractor {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Run:         defaultCommandRunner,
		Timeout:     timeout,
	}
}

// Extract writes a JPEG still for videoPath to thumbnailPath.
func (e *Extractor) Extract(ctx context.Context, videoPath, thumbnailPath string) error {
	if e == nil {
		return &ExtractError{Err: errors.New("extractor unavailable")}
	}
	if e.Run == nil {
		e.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	ctx, span := logging.StartSpan(execCtx, "thumbs.extract")
	defer span.End()

	primaryErr := e.captureAtOffset(ctx, videoPath, thumbnailPath)
	if primaryErr == nil {
		return nil
	}

	logging.FromContext(ctx).Warn("primary thumbnail capture failed, trying first frame",
		"video", videoPath, "error", primaryErr)

	if err := e.captureFirstFrame(ctx, videoPath, thumbnailPath); err != nil {
		return &ExtractError{Err: err}
	}

	return nil
}

// captureAtOffset probes the video duration and grabs the frame at
// min(1s, duration).
func (e *Extractor) captureAtOffset(ctx context.Context, videoPath, thumbnailPath string) error {
	duration, err := e.probeDuration(ctx, videoPath)
	if err != nil {
		return err
	}

	offset := 1.0
	if duration < offset {
		offset = duration
	}

	_, err = e.Run(ctx, e.FFmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		thumbnailPath,
	)
	if err != nil {
		return fmt.Errorf("capture frame at %.3fs: %w", offset, err)
	}
	return nil
}

// captureFirstFrame decodes the very first frame without seeking.
func (e *Extractor) captureFirstFrame(ctx context.Context, videoPath, thumbnailPath string) error {
	_, err := e.Run(ctx, e.FFmpegPath,
		"-y",
		"-i", videoPath,
		"-frames:v", "1",
		thumbnailPath,
	)
	if err != nil {
		return fmt.Errorf("capture first frame: %w", err)
	}
	return nil
}

func (e *Extractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	out, err := e.Run(ctx, e.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse probed duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("probed negative duration %f", duration)
	}

	return duration, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
