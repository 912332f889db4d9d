package ports

import (
	"context"
	"time"

	"NormasScanner/internal/domain"
)

// Extractor pulls raw candidates from the gazette for one date and edition.
// A day without publications yields an empty slice, not an error.
type Extractor interface {
	Extract(ctx context.Context, date time.Time, edition domain.EditionKind) ([]domain.Candidate, error)
	Close()
}

// CorpusStore persists the accumulated corpus text between runs.
type CorpusStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, text string) error
}

// DocumentArchive stores a copy of an accepted norm's document and returns a
// reference to it.
type DocumentArchive interface {
	Store(ctx context.Context, documentURL, fileName string) (string, error)
}

// ReportSink appends accepted norms as rows to an external tabular store.
type ReportSink interface {
	AppendRows(ctx context.Context, rows [][]string) error
}

// Notifier delivers the run digest to the distribution list.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Scheduler triggers recurring pipeline executions in loop mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
