package entity

// Status is the outbox lifecycle of an uploaded-image event: the relay
// claims pending rows, publishes them and marks them processed; rows
// that exhaust their retries end up failed.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Processed  Status = "processed"
	Failed     Status = "failed"
)
