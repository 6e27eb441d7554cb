// Package aggregate drives the bubble decoder across every page, form, and
// subject band, folding the decoded counts into per-subject totals.
package aggregate

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/MeKo-Tech/omrscore/internal/decoder"
	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/MeKo-Tech/omrscore/internal/utils"
)

// ProgressFunc reports pages completed out of the total.
type ProgressFunc func(done, total int)

// Config controls form splitting, concurrency, and diagnostics.
type Config struct {
	// SplitForms enables partitioning each page into FormsPerPage
	// independently scored forms.
	SplitForms   bool
	FormsPerPage int
	// Workers bounds concurrent page decoding; <=1 decodes sequentially.
	Workers int
	// DebugDir receives annotated diagnostic rasters when non-empty.
	// Writes are best-effort and never affect counts.
	DebugDir string
	Progress ProgressFunc
}

// FormRecord is an immutable snapshot of one form's own counts, appended in
// (page, form) order.
type FormRecord struct {
	Page   int
	Form   int
	Counts map[string]decoder.Counts
}

// Result holds the aggregated counts across all pages and forms plus the
// ordered per-form breakdown.
type Result struct {
	Aggregated map[string]decoder.Counts
	Forms      []FormRecord
	Pages      int
}

// Aggregator composes the decoder over a resolved layout.
type Aggregator struct {
	cfg       Config
	cal       decoder.CalibrationTable
	ratings   []layout.Rating
	questions int
}

// New returns an Aggregator for the given calibration, rating scheme, and
// expected question count.
func New(cfg Config, cal decoder.CalibrationTable, ratings []layout.Rating, questions int) *Aggregator {
	if cfg.FormsPerPage < 1 {
		cfg.FormsPerPage = 1
	}
	return &Aggregator{cfg: cfg, cal: cal, ratings: ratings, questions: questions}
}

// Run decodes every page and folds the results. Pages are independent, so
// they may be decoded in parallel; the fold is serialized and the per-form
// order restored by sorting on (page, form).
func (a *Aggregator) Run(pages []*image.Gray, subjects []layout.Subject) *Result {
	res := &Result{
		Aggregated: make(map[string]decoder.Counts, len(subjects)),
		Pages:      len(pages),
	}
	for _, s := range subjects {
		res.Aggregated[s.Name] = decoder.Zero(a.ratings)
	}

	workers := a.cfg.Workers
	if workers > len(pages) {
		workers = len(pages)
	}
	if workers <= 1 {
		for i, page := range pages {
			a.foldPage(res, a.decodePage(i, page, subjects))
			a.report(i+1, len(pages))
		}
		sortForms(res.Forms)
		return res
	}

	jobs := make(chan int, len(pages))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records := a.decodePage(i, pages[i], subjects)
				mu.Lock()
				a.foldPage(res, records)
				done++
				d := done
				mu.Unlock()
				a.report(d, len(pages))
			}
		}()
	}
	for i := range pages {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sortForms(res.Forms)
	return res
}

// decodePage splits one page into forms and decodes every subject band of
// every form, returning the per-form records.
func (a *Aggregator) decodePage(pageIdx int, page *image.Gray, subjects []layout.Subject) []FormRecord {
	var forms []image.Rectangle
	if a.cfg.SplitForms && a.cfg.FormsPerPage > 1 {
		forms = SplitForms(page, a.cfg.FormsPerPage)
	} else {
		forms = []image.Rectangle{page.Bounds()}
	}

	records := make([]FormRecord, 0, len(forms))
	for formIdx, formRect := range forms {
		form := utils.SubGray(page, formRect)
		rec := FormRecord{
			Page:   pageIdx,
			Form:   formIdx,
			Counts: make(map[string]decoder.Counts, len(subjects)),
		}

		var canvas *image.RGBA
		if a.cfg.DebugDir != "" && form != nil {
			canvas = utils.GrayToRGBA(form)
		}

		for _, sub := range subjects {
			counts, marks := a.decodeSubject(form, sub)
			rec.Counts[sub.Name] = counts
			if canvas != nil {
				region := a.formRegion(form, sub)
				decoder.Annotate(canvas, region, marks)
			}
		}
		records = append(records, rec)

		if canvas != nil {
			a.writeDiagnostic(canvas, pageIdx, formIdx)
		}
	}
	return records
}

// decodeSubject decodes one subject band of one form. A nil (degenerate)
// form contributes zero counts.
func (a *Aggregator) decodeSubject(form *image.Gray, sub layout.Subject) (decoder.Counts, []decoder.Mark) {
	if form == nil {
		return decoder.Zero(a.ratings), nil
	}
	region := a.formRegion(form, sub)
	cal := a.cal.Lookup(sub.Name)
	return decoder.DecodeBand(form, region, a.ratings, a.questions, cal)
}

func (a *Aggregator) formRegion(form *image.Gray, sub layout.Subject) decoder.Region {
	b := form.Bounds()
	rect, cols := sub.Band.ToPixels(b.Dx(), b.Dy())
	return decoder.Region{Rect: rect, Columns: cols}
}

// foldPage adds each form's counts into the aggregated per-subject totals.
func (a *Aggregator) foldPage(res *Result, records []FormRecord) {
	for _, rec := range records {
		for name, counts := range rec.Counts {
			agg, ok := res.Aggregated[name]
			if !ok {
				agg = decoder.Zero(a.ratings)
				res.Aggregated[name] = agg
			}
			agg.Add(counts)
		}
	}
	res.Forms = append(res.Forms, records...)
}

// writeDiagnostic stores the annotated form raster. Failures are logged and
// swallowed; diagnostics must never become a failure path for scoring.
func (a *Aggregator) writeDiagnostic(canvas *image.RGBA, pageIdx, formIdx int) {
	name := fmt.Sprintf("page_%03d_form_%02d.png", pageIdx+1, formIdx+1)
	path := filepath.Join(a.cfg.DebugDir, name)
	if err := utils.SavePNG(canvas, path); err != nil {
		slog.Warn("diagnostic write failed", "path", path, "error", err)
	}
}

func (a *Aggregator) report(done, total int) {
	if a.cfg.Progress != nil {
		a.cfg.Progress(done, total)
	}
}

func sortForms(forms []FormRecord) {
	sort.Slice(forms, func(i, j int) bool {
		if forms[i].Page == forms[j].Page {
			return forms[i].Form < forms[j].Form
		}
		return forms[i].Page < forms[j].Page
	})
}
