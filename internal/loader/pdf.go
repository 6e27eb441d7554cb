package loader

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// loadPDF extracts the scanned page images from a PDF and returns them as
// grayscale pages in page order. Scanned OMR sheets carry one full-page image
// per PDF page, which pdfcpu extracts at its native scan resolution. A
// vector-only page has no embedded image and contributes no page to the
// result; a PDF with no page images at all is a LoadError.
func loadPDF(ref DocumentRef) ([]*image.Gray, error) {
	filename := ref.Path
	if len(ref.Data) > 0 {
		tmp, cleanup, err := materialize(ref.Data, "omr-upload-*.pdf")
		if err != nil {
			return nil, &LoadError{Ref: refName(ref), Err: err}
		}
		defer cleanup()
		filename = tmp
	}

	pages, err := extractPageImages(filename)
	if err != nil {
		return nil, &LoadError{Ref: refName(ref), Err: err}
	}
	if len(pages) == 0 {
		return nil, &LoadError{Ref: refName(ref), Err: errors.New("document contains no page images")}
	}
	return pages, nil
}

// extractPageImages runs pdfcpu image extraction into a scoped temp directory
// and loads the result grouped by page. The temp directory is removed on every
// exit path.
func extractPageImages(filename string) ([]*image.Gray, error) {
	tempDir, err := os.MkdirTemp("", "omr-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(filename, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	byPage := make(map[int]*image.Gray)
	walkErr := filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		pageNum, perr := parsePageFromFilename(info.Name())
		if perr != nil {
			return nil // not a page image
		}
		img, lerr := utils.LoadImage(path)
		if lerr != nil {
			return nil // skip unreadable images
		}
		// Keep the first (typically only) image per page.
		if _, seen := byPage[pageNum]; !seen {
			byPage[pageNum] = utils.ToGray(img)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	nums := make([]int, 0, len(byPage))
	for n := range byPage {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	pages := make([]*image.Gray, 0, len(nums))
	for _, n := range nums {
		if g := byPage[n]; g != nil && !g.Bounds().Empty() {
			pages = append(pages, g)
		}
	}
	return pages, nil
}

// parsePageFromFilename extracts the page number from a pdfcpu extracted
// filename of the form page_<num>_image_<idx>.<ext>.
func parsePageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}
