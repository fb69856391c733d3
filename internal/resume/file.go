package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/errs"
)

// File is a resume selected for upload.
type File struct {
	Name        string
	ContentType string // MIME type declared by the browser or sniffed from content
	Data        []byte
}

// NewFile returns a File. When contentType is empty the type is sniffed from data.
func NewFile(name, contentType string, data []byte) *File {
	if contentType == "" && len(data) > 0 {
		contentType = mimetype.Detect(data).String()
	}
	return &File{Name: name, ContentType: contentType, Data: data}
}

// ReadFile loads a resume from disk, sniffing its content type.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	return NewFile(filepath.Base(path), "", data), nil
}

// IsPDF reports whether the declared content type names PDF.
func (f *File) IsPDF() bool {
	return strings.Contains(strings.ToLower(f.ContentType), "pdf")
}

// Validate checks an upload before any request is made. Failures are
// validation errors with status 400.
func Validate(file *File, jobDescription string) error {
	if file == nil || len(file.Data) == 0 {
		return errs.Invalid("Please select a resume file.")
	}
	if !file.IsPDF() {
		return errs.Invalid("Please upload a PDF file.")
	}
	if strings.TrimSpace(jobDescription) == "" {
		return errs.Invalid("Please enter a job description.")
	}
	return nil
}
