package capture

import "context"

// Device is the microphone boundary. Acquire requests exclusive access and
// starts delivering audio; it fails when permission is denied or no input
// device exists.
type Device interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is one live capture. Chunks delivers the recorded audio as a finite
// sequence of binary chunks; the channel is closed after Close, once the final
// chunk has been delivered. Pause suspends chunk production without dropping
// buffered audio; Resume continues it. Close stops the capture and releases
// the underlying device.
type Session interface {
	Chunks() <-chan []byte
	Pause() error
	Resume() error
	Close() error
}
