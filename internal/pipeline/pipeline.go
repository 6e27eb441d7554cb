// Package pipeline wires the loader, layout resolver, aggregator, and score
// calculator into a single decoding run.
package pipeline

import (
	"image"

	"github.com/MeKo-Tech/omrscore/internal/aggregate"
	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/loader"
	"github.com/MeKo-Tech/omrscore/internal/score"
)

// DefaultExpectedQuestions is the number of question slots per subject band
// on the standard printed sheet.
const DefaultExpectedQuestions = 20

// Config holds the configuration for one decoding run.
type Config struct {
	Layout      layout.Config
	Calibration decoder.CalibrationTable
	Score       score.Config

	// Subjects is the explicit ordered subject list; it takes precedence
	// over Phase.
	Subjects []string
	// Phase is the class/stream code used to derive subjects when no
	// explicit list is given.
	Phase string

	ExpectedQuestions int
	SplitForms        bool
	FormsPerPage      int
	Workers           int
	// Respondents is the caller-supplied total respondent count; 0 means
	// score against the number of forms actually decoded.
	Respondents int
	// DebugDir receives annotated diagnostic rasters when non-empty.
	DebugDir string
	Progress aggregate.ProgressFunc
}

// DefaultConfig returns a config with component defaults.
func DefaultConfig() Config {
	return Config{
		Layout:            layout.DefaultConfig(),
		Calibration:       decoder.DefaultCalibrationTable(),
		Score:             score.DefaultConfig(),
		ExpectedQuestions: DefaultExpectedQuestions,
		FormsPerPage:      1,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// FromConfig creates a builder seeded with an existing config, so callers can
// override per-run settings without rebuilding the whole configuration.
func FromConfig(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithSubjects sets the explicit ordered subject list.
func (b *Builder) WithSubjects(subjects []string) *Builder {
	b.cfg.Subjects = subjects
	return b
}

// WithPhase sets the class/stream phase code.
func (b *Builder) WithPhase(phase string) *Builder {
	b.cfg.Phase = phase
	return b
}

// WithExpectedQuestions sets the question slots per subject band.
func (b *Builder) WithExpectedQuestions(n int) *Builder {
	if n > 0 {
		b.cfg.ExpectedQuestions = n
	}
	return b
}

// WithFormSplitting enables splitting each page into n independent forms.
func (b *Builder) WithFormSplitting(n int) *Builder {
	if n > 1 {
		b.cfg.SplitForms = true
		b.cfg.FormsPerPage = n
	}
	return b
}

// WithWorkers bounds concurrent page decoding.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// WithRespondents sets the caller-supplied total respondent count.
func (b *Builder) WithRespondents(n int) *Builder {
	if n >= 0 {
		b.cfg.Respondents = n
	}
	return b
}

// WithCalibration replaces the per-subject calibration table.
func (b *Builder) WithCalibration(table decoder.CalibrationTable) *Builder {
	b.cfg.Calibration = table
	return b
}

// WithLayout replaces the sheet layout configuration.
func (b *Builder) WithLayout(cfg layout.Config) *Builder {
	b.cfg.Layout = cfg
	return b
}

// WithScorePolicy replaces the scoring policy.
func (b *Builder) WithScorePolicy(cfg score.Config) *Builder {
	b.cfg.Score = cfg
	return b
}

// WithDebugDir enables diagnostic raster output into dir.
func (b *Builder) WithDebugDir(dir string) *Builder {
	b.cfg.DebugDir = dir
	return b
}

// WithProgress sets the per-page progress callback.
func (b *Builder) WithProgress(fn aggregate.ProgressFunc) *Builder {
	b.cfg.Progress = fn
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build resolves the layout and returns a ready pipeline. A LayoutError is
// returned when neither subjects nor a phase code yields a subject list.
func (b *Builder) Build() (*Pipeline, error) {
	subjects, err := layout.Resolve(b.cfg.Subjects, b.cfg.Phase, b.cfg.Layout)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: b.cfg, subjects: subjects}, nil
}

// Pipeline decodes documents against a resolved subject layout.
type Pipeline struct {
	cfg      Config
	subjects []layout.Subject
}

// Subjects returns the resolved subject layout in scoring order.
func (p *Pipeline) Subjects() []layout.Subject { return p.subjects }

// WithProgress returns a copy of the pipeline with the progress callback set,
// so one resolved layout can serve runs with different observers.
func (p *Pipeline) WithProgress(fn aggregate.ProgressFunc) *Pipeline {
	cp := *p
	cp.cfg.Progress = fn
	return &cp
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// ProcessFile decodes the document at path.
func (p *Pipeline) ProcessFile(path string) (*Result, error) {
	return p.ProcessDocument(loader.DocumentRef{Path: path})
}

// ProcessBytes decodes an in-memory document buffer.
func (p *Pipeline) ProcessBytes(data []byte, kind loader.Kind) (*Result, error) {
	return p.ProcessDocument(loader.DocumentRef{Data: data, Kind: kind})
}

// ProcessDocument runs the full pipeline on one document. A LoadError is
// surfaced together with an empty (never partial) result, so callers can
// report "no pages found" without aborting the whole request.
func (p *Pipeline) ProcessDocument(ref loader.DocumentRef) (*Result, error) {
	pages, err := loader.LoadDocument(ref)
	if err != nil {
		return emptyResult(p.subjects, p.cfg.Layout.Ratings), err
	}
	return p.ProcessPages(pages), nil
}

// ProcessPages decodes already-loaded grayscale pages.
func (p *Pipeline) ProcessPages(pages []*image.Gray) *Result {
	agg := aggregate.New(aggregate.Config{
		SplitForms:   p.cfg.SplitForms,
		FormsPerPage: p.cfg.FormsPerPage,
		Workers:      p.cfg.Workers,
		DebugDir:     p.cfg.DebugDir,
		Progress:     p.cfg.Progress,
	}, p.cfg.Calibration, p.cfg.Layout.Ratings, p.cfg.ExpectedQuestions)

	run := agg.Run(pages, p.subjects)
	return p.assemble(run)
}

// assemble converts aggregated counts into the scored result.
func (p *Pipeline) assemble(run *aggregate.Result) *Result {
	responses := p.cfg.Respondents
	if responses <= 0 {
		responses = len(run.Forms)
	}

	res := &Result{
		Pages:     run.Pages,
		Responses: responses,
		Subjects:  make([]SubjectResult, 0, len(p.subjects)),
		Forms:     make([]FormResult, 0, len(run.Forms)),
	}
	ratings := p.cfg.Layout.Ratings
	questions := p.cfg.ExpectedQuestions

	for _, sub := range p.subjects {
		counts, ok := run.Aggregated[sub.Name]
		if !ok {
			counts = decoder.Zero(ratings)
		}
		res.Subjects = append(res.Subjects, SubjectResult{
			Name:       sub.Name,
			Counts:     counts,
			Percentage: score.Percentage(counts, ratings, responses, questions),
			Verdict:    p.cfg.Score.Evaluate(sub.Name, counts, ratings, responses, questions),
		})
	}

	for _, rec := range run.Forms {
		fr := FormResult{
			Page:        rec.Page,
			Form:        rec.Form,
			Counts:      rec.Counts,
			Percentages: make(map[string]float64, len(rec.Counts)),
		}
		// A single form represents one respondent.
		for name, counts := range rec.Counts {
			fr.Percentages[name] = score.Percentage(counts, ratings, 1, questions)
		}
		res.Forms = append(res.Forms, fr)
	}
	return res
}

func emptyResult(subjects []layout.Subject, ratings []layout.Rating) *Result {
	res := &Result{Subjects: make([]SubjectResult, 0, len(subjects))}
	for _, sub := range subjects {
		res.Subjects = append(res.Subjects, SubjectResult{
			Name:    sub.Name,
			Counts:  decoder.Zero(ratings),
			Verdict: score.Fail,
		})
	}
	return res
}
