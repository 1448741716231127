package model

// AudioArtifact is a transferable audio payload: raw bytes plus the declared
// media type and a provisional filename. Produced by a finished capture
// session or by direct file selection, and consumed once by the save
// coordinator.
type AudioArtifact struct {
	Data     []byte
	MIMEType string
	FileName string
}

// ProcessingResult is the atomic output of the processing pipeline. It is
// never partially populated: a failed stage fails the whole result.
type ProcessingResult struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}
