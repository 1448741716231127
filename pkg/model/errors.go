package model

import "errors"

// Failure classes for the capture-to-record pipeline. Stages wrap these with
// upstream detail; callers classify with errors.Is.
var (
	// ErrDeviceUnavailable: the microphone could not be acquired.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrFetchFailed: audio bytes could not be retrieved from their reference URL.
	ErrFetchFailed = errors.New("audio fetch failed")

	// ErrTranscriptionFailed: the speech-to-text capability returned non-success.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrSummarizationFailed: the summary generation returned non-success.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrPersistenceFailed: a record write or blob upload failed; no partial
	// write was applied.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrSaveInFlight: a save was requested while another one is still running.
	ErrSaveInFlight = errors.New("a save is already in progress")
)
