package camera

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// PipeDevice captures frames by running an external capture command (for
// example ffmpeg reading a V4L2 device) that writes an MJPEG stream to
// stdout. Frames are recovered from the byte stream by scanning for JPEG
// start/end markers.
type PipeDevice struct {
	caps    Capabilities
	command []string
}

// NewPipeDevice creates a device backed by the given command line. The
// command receives the configured exposure and sharpness through the
// placeholders {exposure} and {sharpness}.
func NewPipeDevice(caps Capabilities, command []string) *PipeDevice {
	return &PipeDevice{caps: caps, command: command}
}

var _ Device = (*PipeDevice)(nil)

func (d *PipeDevice) Capabilities() Capabilities {
	return d.caps
}

// Open starts the capture process. The process is killed when the session
// closes or the open context is canceled before the pipe produces output.
func (d *PipeDevice) Open(ctx context.Context, cfg Config) (Session, error) {
	if len(d.command) == 0 {
		return nil, ErrNoDevice
	}

	args := make([]string, 0, len(d.command)-1)
	for _, a := range d.command[1:] {
		a = strings.ReplaceAll(a, "{exposure}", fmt.Sprint(cfg.ExposureSteps))
		a = strings.ReplaceAll(a, "{sharpness}", cfg.Sharpness.String())
		args = append(args, a)
	}

	cmd := exec.Command(d.command[0], args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture process: %w", err)
	}

	sess := &pipeSession{cmd: cmd, pipe: stdout}

	// Wait for the first byte so a missing or broken capture command fails
	// the open rather than the first frame read.
	ready := make(chan error, 1)
	go func() {
		one := make([]byte, 1)
		n, err := stdout.Read(one)
		if n == 1 {
			sess.pending = append(sess.pending, one[0])
			err = nil
		}
		ready <- err
	}()

	select {
	case err := <-ready:
		if err != nil {
			_ = sess.Close()
			return nil, fmt.Errorf("capture process produced no output: %w", err)
		}
		return sess, nil
	case <-ctx.Done():
		_ = sess.Close()
		return nil, ctx.Err()
	}
}

type pipeSession struct {
	cmd     *exec.Cmd
	pipe    io.ReadCloser
	pending []byte
}

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// frameBufferLimit guards against unbounded growth when the stream never
// produces an end-of-image marker.
const frameBufferLimit = 10 * 1024 * 1024

// Capture scans the MJPEG byte stream for the next complete JPEG frame.
func (s *pipeSession) Capture(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if frame, rest, ok := extractFrame(s.pending); ok {
			s.pending = rest
			return frame, nil
		}

		if len(s.pending) > frameBufferLimit {
			s.pending = nil
		}

		n, err := s.pipe.Read(buf)
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("capture stream: %w", err)
		}
	}
}

// extractFrame pulls the first complete SOI..EOI frame out of data,
// returning the frame, the remaining bytes (which may start the next
// frame), and whether a frame was found.
func extractFrame(data []byte) (frame, rest []byte, ok bool) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		return nil, nil, false
	}

	end := bytes.Index(data[start:], jpegEOI)
	if end < 0 {
		return nil, data[start:], false
	}
	end += start + len(jpegEOI)

	frame = make([]byte, end-start)
	copy(frame, data[start:end])
	return frame, data[end:], true
}

func (s *pipeSession) Close() error {
	_ = s.pipe.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}
