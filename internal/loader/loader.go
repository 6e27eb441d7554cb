// Package loader turns an input document (PDF or raster image) into the
// ordered sequence of grayscale pages the decoding pipeline consumes.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/utils"
)

// Kind declares how a document reference should be interpreted.
type Kind int

const (
	// KindAuto infers the kind from the file extension or content sniffing.
	KindAuto Kind = iota
	// KindPDF treats the document as a multi-page PDF.
	KindPDF
	// KindImage treats the document as a single raster page.
	KindImage
)

// DocumentRef identifies an input document either by path or by an in-memory
// buffer. When both are set, Data wins.
type DocumentRef struct {
	Path string
	Data []byte
	Kind Kind
}

// LoadError indicates the document could not be opened, decoded, or yielded
// zero pages. The pipeline surfaces it alongside an empty result set.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load document %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var pdfMagic = []byte("%PDF")

// LoadDocument produces one grayscale raster per page, preserving page order.
// A single image yields exactly one page. The original byte buffer is not
// retained after conversion.
func LoadDocument(ref DocumentRef) ([]*image.Gray, error) {
	kind := resolveKind(ref)
	switch kind {
	case KindPDF:
		return loadPDF(ref)
	case KindImage:
		return loadImagePage(ref)
	default:
		return nil, &LoadError{Ref: refName(ref), Err: errors.New("unknown document kind")}
	}
}

// resolveKind infers PDF vs image from the declared kind, the magic bytes of
// an in-memory buffer, or the file extension.
func resolveKind(ref DocumentRef) Kind {
	if ref.Kind != KindAuto {
		return ref.Kind
	}
	if len(ref.Data) >= len(pdfMagic) {
		if bytes.HasPrefix(ref.Data, pdfMagic) {
			return KindPDF
		}
		return KindImage
	}
	if strings.EqualFold(filepath.Ext(ref.Path), ".pdf") {
		return KindPDF
	}
	return KindImage
}

func refName(ref DocumentRef) string {
	if ref.Path != "" {
		return ref.Path
	}
	return "<bytes>"
}

// loadImagePage decodes a single raster page and converts it to grayscale.
func loadImagePage(ref DocumentRef) ([]*image.Gray, error) {
	var (
		img image.Image
		err error
	)
	if len(ref.Data) > 0 {
		img, err = utils.DecodeImageBytes(ref.Data)
	} else {
		img, err = utils.LoadImage(ref.Path)
	}
	if err != nil {
		return nil, &LoadError{Ref: refName(ref), Err: err}
	}
	g := utils.ToGray(img)
	if g == nil || g.Bounds().Empty() {
		return nil, &LoadError{Ref: refName(ref), Err: errors.New("empty raster")}
	}
	return []*image.Gray{g}, nil
}

// materialize writes an in-memory buffer to a scoped temp file so file-based
// tooling can process it. The caller must invoke the returned cleanup.
func materialize(data []byte, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	name := f.Name()
	cleanup := func() { _ = os.Remove(name) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return name, cleanup, nil
}
