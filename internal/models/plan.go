package models

// WritePlan is the immutable intent produced by the ingest service and
// consumed exactly once by the orchestrator. It carries everything the
// repository and storage backend need; it performs no I/O itself.
//
// Exactly one of PayloadBytes / PayloadPath is set, except for Link
// plans which carry only LinkURL.
type WritePlan struct {
	HashFull   string
	CodeMinLen int
	Kind       ItemKind
	// Format is empty only for Link plans.
	Format     ContentFormat
	SizeBytes  int64
	UploadedAt int64
	OriginAt   int64

	PayloadBytes []byte
	PayloadPath  string

	Width   int
	Height  int
	LinkURL string
}
