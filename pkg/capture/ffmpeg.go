package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

const captureChunkSize = 32 * 1024

// FFmpegDevice captures the default microphone by shelling out to ffmpeg,
// streaming mono 16 kHz WAV over stdout. Pause and resume are implemented
// with SIGSTOP/SIGCONT on the ffmpeg process.
type FFmpegDevice struct {
	// InputFormat/InputDevice override the platform defaults
	// (avfoundation ":default" on macOS, pulse "default" elsewhere).
	InputFormat string
	InputDevice string
}

func (d *FFmpegDevice) Acquire(ctx context.Context) (Session, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("ffmpeg not found in PATH"))
	}

	format, device := d.inputSelector()
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", format,
		"-i", device,
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if err := cmd.Start(); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	s := &ffmpegSession{
		cmd:      cmd,
		chunks:   make(chan []byte, 8),
		readDone: make(chan struct{}),
	}
	go s.read(stdout)
	return s, nil
}

func (d *FFmpegDevice) inputSelector() (format, device string) {
	format = d.InputFormat
	device = d.InputDevice
	if format == "" {
		if runtime.GOOS == "darwin" {
			format = "avfoundation"
		} else {
			format = "pulse"
		}
	}
	if device == "" {
		if format == "avfoundation" {
			device = ":default"
		} else {
			device = "default"
		}
	}
	return format, device
}

type ffmpegSession struct {
	cmd      *exec.Cmd
	chunks   chan []byte
	readDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (s *ffmpegSession) Chunks() <-chan []byte {
	return s.chunks
}

func (s *ffmpegSession) read(stdout io.Reader) {
	defer close(s.chunks)
	defer close(s.readDone)
	for {
		buf := make([]byte, captureChunkSize)
		n, err := stdout.Read(buf)
		if n > 0 {
			s.chunks <- buf[:n]
		}
		if err != nil {
			return
		}
	}
}

func (s *ffmpegSession) Pause() error {
	return s.cmd.Process.Signal(syscall.SIGSTOP)
}

func (s *ffmpegSession) Resume() error {
	return s.cmd.Process.Signal(syscall.SIGCONT)
}

// Close asks ffmpeg to finish, waits for it to exit, and releases the device.
// The chunks channel closes once the final buffered output has been read.
func (s *ffmpegSession) Close() error {
	s.closeOnce.Do(func() {
		// A paused process cannot handle SIGINT; wake it first.
		_ = s.cmd.Process.Signal(syscall.SIGCONT)
		_ = s.cmd.Process.Signal(syscall.SIGINT)
		// Wait closes the stdout pipe, so the reader must hit EOF first
		// or the tail of the recording is lost.
		<-s.readDone
		s.closeErr = s.cmd.Wait()
	})
	return s.closeErr
}
