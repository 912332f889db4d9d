package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"NormasScanner/internal/domain"
	"NormasScanner/internal/keywords"
	"NormasScanner/internal/schedule"
)

type fakeExtractor struct {
	byEdition map[domain.EditionKind][]domain.Candidate
	err       error
	calls     int
	closed    bool
}

func (f *fakeExtractor) Extract(_ context.Context, _ time.Time, edition domain.EditionKind) ([]domain.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byEdition[edition], nil
}

func (f *fakeExtractor) Close() { f.closed = true }

type fakeCorpus struct {
	text    string
	saved   string
	loadErr error
	saveErr error
}

func (f *fakeCorpus) Load(context.Context) (string, error) { return f.text, f.loadErr }
func (f *fakeCorpus) Save(_ context.Context, text string) error {
	f.saved = text
	return f.saveErr
}

type fakeArchive struct {
	err    error
	stored []string
}

func (f *fakeArchive) Store(_ context.Context, documentURL, fileName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, fileName)
	return "archive://" + fileName, nil
}

type fakeReport struct {
	rows [][]string
}

func (f *fakeReport) AppendRows(_ context.Context, rows [][]string) error {
	f.rows = append(f.rows, rows...)
	return nil
}

type fakeNotifier struct {
	messages []string
	onSend   func()
}

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	if f.onSend != nil {
		f.onSend()
	}
	f.messages = append(f.messages, message)
	return nil
}

func singleEntry(today time.Time) []schedule.Entry {
	return []schedule.Entry{{Date: today, Edition: domain.EditionOrdinary}}
}

func relevantCandidate(title string) domain.Candidate {
	return domain.Candidate{
		Sector:          "Energía y Minas",
		Title:           title,
		Summary:         "OSINERGMIN fija la banda de precios de combustibles diésel y gasolina",
		PublicationDate: "26/08/2026",
		DocumentURL:     "https://example.org/norma.pdf",
		FileName:        "norma.pdf",
		Edition:         domain.EditionOrdinary,
	}
}

func newTestPipeline(deps PipelineDeps) *Pipeline {
	if deps.Registry == nil {
		deps.Registry = keywords.NewRegistry(keywords.DefaultLists())
	}
	if deps.Schedule == nil {
		deps.Schedule = singleEntry
	}
	return NewPipeline(deps)
}

func TestDeduplicateFirstSeenWins(t *testing.T) {
	t.Parallel()

	first := domain.Candidate{Title: "Aprueban Banda de Precios", PublicationDate: "01/02/2026", Summary: "first"}
	second := domain.Candidate{Title: "aprueban banda de precios", PublicationDate: "01/02/2026", Summary: "second"}
	other := domain.Candidate{Title: "Aprueban Banda de Precios", PublicationDate: "02/02/2026", Summary: "third"}

	unique := Deduplicate([]domain.Candidate{first, second, other})

	if len(unique) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d", len(unique))
	}
	if unique[0].Summary != "first" {
		t.Fatalf("first occurrence should survive, got %q", unique[0].Summary)
	}
}

func TestRunAcceptsAndReports(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {relevantCandidate("Aprueban banda de precios de combustibles")},
	}}
	store := &fakeCorpus{}
	archive := &fakeArchive{}
	report := &fakeReport{}
	notifier := &fakeNotifier{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    store,
		Archive:   archive,
		Report:    report,
		Notifier:  notifier,
	})

	if err := p.Run(context.Background(), today); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.rows) != 1 {
		t.Fatalf("expected 1 report row, got %d", len(report.rows))
	}
	row := report.rows[0]
	if len(row) != 6 {
		t.Fatalf("report row should have 6 columns, got %d", len(row))
	}
	if row[0] != "2026-08-26" || row[4] != "archive://norma.pdf" || row[5] != "Ordinaria" {
		t.Fatalf("unexpected row: %v", row)
	}

	if !strings.Contains(store.saved, "banda de precios") {
		t.Fatalf("corpus should grow with accepted text, got %q", store.saved)
	}

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "<b>") {
		t.Fatalf("expected one digest with bolded titles, got %v", notifier.messages)
	}
}

func TestRunFirstSaveIncludesBootstrapSeed(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {relevantCandidate("Aprueban banda de precios de combustibles")},
	}}
	store := &fakeCorpus{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    store,
		Report:    &fakeReport{},
		Notifier:  &fakeNotifier{},
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// "poliducto" never appears in the candidate, only in the keyword seed.
	if !strings.Contains(store.saved, "poliducto") {
		t.Fatalf("first corpus save should start from the keyword seed, got %q", store.saved)
	}
	if !strings.Contains(store.saved, "banda de precios de combustibles") {
		t.Fatalf("first corpus save should also carry the accepted text, got %q", store.saved)
	}
}

func TestRunLoadFailureSkipsCorpusGrowth(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {relevantCandidate("Aprueban banda de precios de combustibles")},
	}}
	store := &fakeCorpus{loadErr: fmt.Errorf("db hiccup"), text: "corpus acumulado"}
	report := &fakeReport{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    store,
		Report:    report,
		Notifier:  &fakeNotifier{},
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.saved != "" {
		t.Fatalf("a failed load must not be followed by a save, got %q", store.saved)
	}
	if len(report.rows) != 1 {
		t.Fatalf("the run should still report accepted norms, rows = %v", report.rows)
	}
}

func TestRunReleasesExtractorAfterExtraction(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {relevantCandidate("Aprueban banda de precios de combustibles")},
	}}
	notifier := &fakeNotifier{}
	notifier.onSend = func() {
		if !extractor.closed {
			t.Error("browser session should be released before the notification stage")
		}
	}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    &fakeCorpus{},
		Report:    &fakeReport{},
		Notifier:  notifier,
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatal("run should reach the notification stage")
	}
	if !extractor.closed {
		t.Fatal("extractor should be closed after the run")
	}
}

func TestRunPriorityBypass(t *testing.T) {
	t.Parallel()

	// No mandatory term anywhere, but the sector names a priority body. The
	// registry keeps the priority phrase out of the mandatory list so the
	// bypass path itself is exercised.
	reg := keywords.NewRegistry(keywords.Lists{
		Keywords:        []string{"hidrocarburos"},
		MandatoryTerms:  []string{"hidrocarburos"},
		ExcludedSectors: []string{"educacion"},
		PrioritySectors: []string{"direccion general de hidrocarburos"},
	})
	cand := domain.Candidate{
		Sector:          "Dirección General de Hidrocarburos",
		Title:           "Designan fedatario institucional titular",
		Summary:         "Trámite administrativo",
		PublicationDate: "26/08/2026",
		DocumentURL:     "https://example.org/designan.pdf",
		FileName:        "designan.pdf",
	}
	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {cand},
	}}
	report := &fakeReport{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    &fakeCorpus{},
		Report:    report,
		Notifier:  &fakeNotifier{},
		Registry:  reg,
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.rows) != 1 {
		t.Fatalf("priority-sector candidate should be accepted, rows = %v", report.rows)
	}
}

func TestRunExclusionVetoBeatsBypass(t *testing.T) {
	t.Parallel()

	// Sector names a priority body but the combined text hits the exclusion
	// list; the veto is applied first.
	cand := domain.Candidate{
		Sector:  "OSINERGMIN y Ministerio de Educación",
		Title:   "Convenio con el sector educación",
		Summary: "Programa de becas",
	}
	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {cand},
	}}
	report := &fakeReport{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    &fakeCorpus{},
		Report:    report,
		Notifier:  &fakeNotifier{},
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.rows) != 0 {
		t.Fatalf("excluded sector must not be bypassed, rows = %v", report.rows)
	}
}

func TestRunArchiveFailureFallsBackToSourceURL(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{byEdition: map[domain.EditionKind][]domain.Candidate{
		domain.EditionOrdinary: {relevantCandidate("Aprueban banda de precios de combustibles")},
	}}
	report := &fakeReport{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    &fakeCorpus{},
		Archive:   &fakeArchive{err: fmt.Errorf("drive unavailable")},
		Report:    report,
		Notifier:  &fakeNotifier{},
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.rows) != 1 {
		t.Fatalf("archive failure must not drop the norm, rows = %v", report.rows)
	}
	if got := report.rows[0][4]; got != "https://example.org/norma.pdf" {
		t.Fatalf("reference should fall back to the source url, got %q", got)
	}
}

func TestRunExtractionFailureIsTolerated(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{err: fmt.Errorf("site unreachable")}
	notifier := &fakeNotifier{}

	p := newTestPipeline(PipelineDeps{
		Extractor: extractor,
		Corpus:    &fakeCorpus{},
		Notifier:  notifier,
	})

	if err := p.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("extraction failure should not abort the run: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatal("run should still reach the notification stage")
	}
	if !strings.Contains(notifier.messages[0], "no se encontraron normas relevantes") {
		t.Fatalf("expected the no-results notice, got %q", notifier.messages[0])
	}
}

func TestComposeDigestExtraordinaryTag(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	accepted := []domain.AcceptedNorm{
		{Candidate: domain.Candidate{Title: "Norma A", Summary: "sumilla a", Edition: domain.EditionExtraordinary}},
		{Candidate: domain.Candidate{Title: "Norma B", Summary: "sumilla b", Edition: domain.EditionOrdinary}},
	}

	msg := ComposeDigest(today, singleEntry(today), accepted)

	if !strings.Contains(msg, "<b>Norma A (Extraordinaria)</b>") {
		t.Fatalf("extraordinary norms must carry the tag, got %q", msg)
	}
	if strings.Contains(msg, "Norma B (Extraordinaria)") {
		t.Fatalf("ordinary norms must not carry the tag, got %q", msg)
	}
	if !strings.Contains(msg, "26/08/26") {
		t.Fatalf("digest header should name the run date, got %q", msg)
	}
}
