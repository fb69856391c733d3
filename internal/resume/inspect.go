package resume

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var errNoPages = errors.New("document has no pages")

// Summary describes a selected resume for display next to the upload form.
type Summary struct {
	Name  string
	Size  int
	Pages int
}

// Inspect opens the resume as a PDF and counts its pages. The result is a
// display hint for the loading screen; the scoring service judges content.
func Inspect(f *File) (s Summary, err error) {
	s = Summary{Name: f.Name, Size: len(f.Data)}

	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inspect %s: malformed pdf: %v", f.Name, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return s, fmt.Errorf("inspect %s: %w", f.Name, err)
	}

	s.Pages = r.NumPage()
	if s.Pages == 0 {
		return s, fmt.Errorf("inspect %s: %w", f.Name, errNoPages)
	}
	return s, nil
}
