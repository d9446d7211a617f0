package domain

// IngestStatus is the per-document outcome of an ingestion attempt.
type IngestStatus string

const (
	// IngestAdded means the document was ingested for the first time.
	IngestAdded IngestStatus = "added"

	// IngestSkipped means the content hash was unchanged; nothing was written.
	IngestSkipped IngestStatus = "skipped"

	// IngestReplaced means the old version was removed and the new one added.
	IngestReplaced IngestStatus = "replaced"

	// IngestFailed means the document's ingestion aborted with no partial writes.
	IngestFailed IngestStatus = "failed"
)

// IngestReport accumulates outcomes across a batch ingestion.
// A batch continues past per-document failures; callers inspect the
// counters rather than receiving an error on the first failure.
type IngestReport struct {
	// BatchID identifies the ingestion run.
	BatchID string

	Succeeded int
	Failed    int
	Skipped   int
	Total     int

	// Errors holds the per-document failures, keyed by source path.
	Errors map[string]error
}

// Record tallies one document outcome into the report.
func (r *IngestReport) Record(status IngestStatus) {
	r.Total++
	switch status {
	case IngestAdded, IngestReplaced:
		r.Succeeded++
	case IngestSkipped:
		r.Skipped++
	case IngestFailed:
		r.Failed++
	}
}

// RecordError tallies a failure and retains its cause.
func (r *IngestReport) RecordError(path string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]error)
	}
	r.Errors[path] = err
	r.Record(IngestFailed)
}

// LoadedDocument is the loader's output: content plus the hash the
// pipeline trusts for dedup. The pipeline never re-derives the hash;
// loaders must hash the raw source bytes consistently across runs,
// even when the content itself is normalised for chunking.
type LoadedDocument struct {
	ID          string
	SourcePath  string
	Filename    string
	Content     string
	ContentHash string
	PageNumber  int
	Section     string
}
