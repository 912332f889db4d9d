package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NormasScanner/internal/classifier"
	"NormasScanner/internal/corpus"
	"NormasScanner/internal/domain"
	"NormasScanner/internal/keywords"
	"NormasScanner/internal/ports"
	"NormasScanner/internal/schedule"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Extractor ports.Extractor
	Corpus    ports.CorpusStore
	Archive   ports.DocumentArchive
	Report    ports.ReportSink
	Notifier  ports.Notifier
	Registry  *keywords.Registry
	Schedule  schedule.Func
	Logger    *slog.Logger
}

// Pipeline implements one full gazette-review run: extract, deduplicate,
// classify, archive, report, notify, grow the corpus.
type Pipeline struct {
	extractor ports.Extractor
	corpus    ports.CorpusStore
	archive   ports.DocumentArchive
	report    ports.ReportSink
	notifier  ports.Notifier
	registry  *keywords.Registry
	schedule  schedule.Func
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Registry == nil {
		deps.Registry = keywords.NewRegistry(keywords.DefaultLists())
	}
	if deps.Schedule == nil {
		deps.Schedule = schedule.Default
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		extractor: deps.Extractor,
		corpus:    deps.Corpus,
		archive:   deps.Archive,
		report:    deps.Report,
		notifier:  deps.Notifier,
		registry:  deps.Registry,
		schedule:  deps.Schedule,
		logger:    deps.Logger,
	}
}

// Run executes the whole pipeline for the given day. Stage-local failures
// (extraction, archiving, corpus persistence, notification) are logged and
// recovered; only wiring errors abort the run.
func (p *Pipeline) Run(ctx context.Context, today time.Time) error {
	if p.extractor == nil {
		return fmt.Errorf("extractor is not configured")
	}

	corpusText, corpusLoaded := p.loadCorpus(ctx)
	model := corpus.Build(corpusText, p.registry)
	clf := classifier.New(p.registry, model)
	p.logger.Info("corpus model fitted", "vocabulary", model.VocabularySize())

	entries := p.schedule(today)
	candidates := p.extract(ctx, entries)
	// The browser session is only needed for extraction; release it before
	// the slower archival and reporting stages.
	p.extractor.Close()

	unique := Deduplicate(candidates)
	accepted := p.classify(unique, clf)

	p.logger.Info("run summary",
		"extracted", len(candidates),
		"unique", len(unique),
		"accepted", len(accepted),
	)

	archived := p.archiveAll(ctx, accepted)

	if len(archived) > 0 {
		if err := p.appendReport(ctx, today, archived); err != nil {
			return fmt.Errorf("append report rows: %w", err)
		}
		if corpusLoaded {
			p.growCorpus(ctx, corpusText, archived)
		} else {
			// Saving on top of a failed load would overwrite whatever
			// corpus already exists with just this run's texts.
			p.logger.Warn("corpus growth skipped this run after load failure")
		}
	}

	p.notify(ctx, today, entries, archived)

	return nil
}

// loadCorpus returns the persisted corpus text and whether the load can be
// trusted. A failed load still degrades the model to the bootstrap corpus,
// but reports loaded=false so the run does not overwrite existing state.
func (p *Pipeline) loadCorpus(ctx context.Context) (string, bool) {
	if p.corpus == nil {
		return "", true
	}
	text, err := p.corpus.Load(ctx)
	if err != nil {
		p.logger.Warn("corpus load failed, bootstrapping from keywords", "error", err)
		return "", false
	}
	return text, true
}

func (p *Pipeline) extract(ctx context.Context, entries []schedule.Entry) []domain.Candidate {
	var all []domain.Candidate
	for _, entry := range entries {
		results, err := p.extractor.Extract(ctx, entry.Date, entry.Edition)
		if err != nil {
			p.logger.Warn("extraction failed, continuing",
				"date", entry.Date.Format("2006-01-02"),
				"edition", entry.Edition,
				"error", err,
			)
			continue
		}
		p.logger.Info("edition extracted",
			"date", entry.Date.Format("2006-01-02"),
			"edition", entry.Edition,
			"candidates", len(results),
		)
		all = append(all, results...)
	}
	return all
}

// Deduplicate collapses candidates sharing (normalized title, publication
// date); the first occurrence in extraction order survives.
func Deduplicate(candidates []domain.Candidate) []domain.Candidate {
	seen := map[string]struct{}{}
	unique := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// classify applies the exclusion veto, then the priority-sector bypass, then
// the full classifier. The veto is checked before the bypass so an excluded
// sector can never slip in through a priority match.
func (p *Pipeline) classify(candidates []domain.Candidate, clf *classifier.Classifier) []domain.AcceptedNorm {
	var accepted []domain.AcceptedNorm
	for _, c := range candidates {
		verdict := clf.Classify(c)

		if !verdict.Accepted &&
			verdict.Reason != domain.ReasonExcludedSector &&
			classifier.MatchesPrioritySector(p.registry, c) {
			verdict = domain.Verdict{
				Accepted: true,
				Reason:   domain.ReasonPrioritySector,
				Detail:   fmt.Sprintf("priority sector: %s", c.Sector),
			}
		}

		if verdict.Accepted {
			p.logger.Info("norm accepted", "title", c.Title, "reason", verdict.Reason, "detail", verdict.Detail)
			accepted = append(accepted, domain.AcceptedNorm{Candidate: c, Verdict: verdict})
		} else {
			p.logger.Debug("norm rejected", "title", c.Title, "reason", verdict.Reason)
		}
	}
	return accepted
}

// archiveAll stores each accepted document; when archiving fails the original
// source URL becomes the reference instead.
func (p *Pipeline) archiveAll(ctx context.Context, accepted []domain.AcceptedNorm) []domain.AcceptedNorm {
	for i := range accepted {
		c := accepted[i].Candidate
		accepted[i].ReferenceURL = c.DocumentURL

		if p.archive == nil {
			continue
		}
		ref, err := p.archive.Store(ctx, c.DocumentURL, c.FileName)
		if err != nil {
			p.logger.Warn("archive failed, keeping source url", "title", c.Title, "error", err)
			continue
		}
		accepted[i].ReferenceURL = ref
	}
	return accepted
}

func (p *Pipeline) appendReport(ctx context.Context, today time.Time, accepted []domain.AcceptedNorm) error {
	if p.report == nil {
		return nil
	}
	rows := make([][]string, 0, len(accepted))
	for _, a := range accepted {
		rows = append(rows, []string{
			today.Format("2006-01-02"),
			a.Candidate.Title,
			a.Candidate.PublicationDate,
			a.Candidate.Summary,
			a.ReferenceURL,
			string(a.Candidate.Edition),
		})
	}
	return p.report.AppendRows(ctx, rows)
}

// growCorpus appends the accepted texts to the corpus and persists it. Save
// failures are swallowed: the corpus simply does not grow this run. An absent
// corpus is seeded with the keyword bootstrap so the first persisted version
// matches what the model was fitted on.
func (p *Pipeline) growCorpus(ctx context.Context, base string, accepted []domain.AcceptedNorm) {
	if p.corpus == nil {
		return
	}
	if strings.TrimSpace(base) == "" {
		base = corpus.Bootstrap(p.registry)
	}
	texts := make([]string, 0, len(accepted))
	for _, a := range accepted {
		texts = append(texts, a.Candidate.CombinedText())
	}
	updated := strings.TrimSpace(base + "\n" + strings.Join(texts, "\n"))
	if err := p.corpus.Save(ctx, updated); err != nil {
		p.logger.Warn("corpus save failed", "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, today time.Time, entries []schedule.Entry, accepted []domain.AcceptedNorm) {
	if p.notifier == nil {
		return
	}
	message := ComposeDigest(today, entries, accepted)
	if err := p.notifier.Send(ctx, message); err != nil {
		p.logger.Warn("notification failed", "error", err)
	}
}

// ComposeDigest formats the Telegram message: a greeting naming the reviewed
// range, then each accepted norm as a bolded title (tagged when it came from
// an extraordinary edition) followed by its summary. A fixed notice naming the
// reviewed dates goes out when nothing was accepted.
func ComposeDigest(today time.Time, entries []schedule.Entry, accepted []domain.AcceptedNorm) string {
	if len(accepted) == 0 {
		var b strings.Builder
		b.WriteString("Buen día equipo, el día de hoy no se encontraron normas relevantes del sector.\n")
		for _, d := range schedule.Dates(entries) {
			fmt.Fprintf(&b, "\n📅 %s", d.Format("02/01/06"))
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Buen día equipo, se envía la revisión de normas relevantes al sector %s\n\n", today.Format("02/01/06"))
	for _, a := range accepted {
		tag := ""
		if a.Candidate.Edition == domain.EditionExtraordinary {
			tag = " (Extraordinaria)"
		}
		fmt.Fprintf(&b, "<b>%s%s</b>\n%s\n\n", a.Candidate.Title, tag, a.Candidate.Summary)
	}
	return b.String()
}
