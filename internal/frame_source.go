package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// FrameSource yields the current live camera frame
type FrameSource interface {
	Frame(ctx context.Context) (Blob, error)
	Name() string
}

// CommandSource runs a snapshot command (ffmpeg, fswebcam, imagesnap...)
// that writes one encoded frame to stdout
type CommandSource struct {
	Command []string
	Timeout time.Duration
}

// NewCommandSource creates a CommandSource with a default timeout
func NewCommandSource(command []string) *CommandSource {
	return &CommandSource{Command: command, Timeout: 10 * time.Second}
}

// Name identifies the source in errors
func (c *CommandSource) Name() string {
	if len(c.Command) == 0 {
		return "camera"
	}
	return c.Command[0]
}

// Frame runs the command once and returns its stdout as a JPEG blob
func (c *CommandSource) Frame(ctx context.Context) (Blob, error) {
	if len(c.Command) == 0 {
		return Blob{}, fmt.Errorf("no camera command configured: %w", ErrNoLiveFrame)
	}
	if _, err := exec.LookPath(c.Command[0]); err != nil {
		return Blob{}, fmt.Errorf("%s not found: %w", c.Command[0], ErrNoLiveFrame)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		LogDebug("Camera command stderr: %s", stderr.String())
		return Blob{}, fmt.Errorf("%v: %w", err, ErrNoLiveFrame)
	}
	if stdout.Len() == 0 {
		return Blob{}, ErrNoLiveFrame
	}

	return webcamBlob(stdout.Bytes()), nil
}

// FileSource treats a snapshot file, refreshed by some external process,
// as the live frame
type FileSource struct {
	Path string
}

// Name identifies the source in errors
func (f *FileSource) Name() string {
	return f.Path
}

// Frame reads the snapshot file
func (f *FileSource) Frame(ctx context.Context) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return Blob{}, ErrNoLiveFrame
	}
	if err != nil {
		return Blob{}, fmt.Errorf("%v: %w", err, ErrNoLiveFrame)
	}
	return webcamBlob(data), nil
}

func webcamBlob(data []byte) Blob {
	b := NewBlob(fmt.Sprintf("webcam-%d.jpg", time.Now().UnixMilli()), data)
	if !strings.HasPrefix(b.MIMEType, "image/") {
		b.MIMEType = "image/jpeg"
	}
	return b
}
