package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
)

// ErrInvalidExport is returned for unsupported export options.
var ErrInvalidExport = errors.New("invalid export options")

// Format is an export file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// ParseFormat accepts png, jpg (or jpeg), pdf and svg, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "pdf":
		return FormatPDF, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidExport, s)
}

// ExportOptions are the caller's export choices.
type ExportOptions struct {
	ImageURL           string  `json:"imageUrl"`
	Format             Format  `json:"format"`
	Quality            float64 `json:"quality"`
	IncludeAnnotations bool    `json:"includeAnnotations"`
	VisibleOnly        bool    `json:"visibleOnly"`
}

// Payload is what the store hands to an export or save collaborator.
type Payload struct {
	Annotations        []annotation.Record `json:"annotations"`
	ImageURL           string              `json:"imageUrl"`
	Format             Format              `json:"format"`
	Quality            float64             `json:"quality"`
	IncludeAnnotations bool                `json:"includeAnnotations"`
	VisibleOnly        bool                `json:"visibleOnly"`
}

// Payload assembles the export payload for opts. Quality must lie in [0,1].
func (s *Store) Payload(opts ExportOptions) (Payload, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return Payload{}, err
	}
	if opts.Quality < 0 || opts.Quality > 1 {
		return Payload{}, fmt.Errorf("%w: quality %v outside [0,1]", ErrInvalidExport, opts.Quality)
	}
	recs := []annotation.Record{}
	if opts.IncludeAnnotations {
		for _, e := range s.Entries() {
			if opts.VisibleOnly && !e.Visible {
				continue
			}
			recs = append(recs, e.Record)
		}
	}
	return Payload{
		Annotations:        recs,
		ImageURL:           opts.ImageURL,
		Format:             format,
		Quality:            opts.Quality,
		IncludeAnnotations: opts.IncludeAnnotations,
		VisibleOnly:        opts.VisibleOnly,
	}, nil
}
