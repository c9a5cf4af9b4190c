package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/micro-annotate-mcp/internal/store"
)

// Write encodes the scene in the given format. quality applies to JPEG.
func Write(w io.Writer, s Scene, format store.Format, quality float64) error {
	switch format {
	case store.FormatPNG:
		return WritePNG(w, s)
	case store.FormatJPG:
		return WriteJPEG(w, s, quality)
	case store.FormatSVG:
		return WriteSVG(w, s)
	case store.FormatPDF:
		return WritePDF(w, s)
	}
	return fmt.Errorf("%w: unsupported format %q", store.ErrInvalidExport, format)
}

// WriteFile writes the scene to path, creating parent directories. The file
// is written to a temporary name first and renamed on success.
func WriteFile(path string, s Scene, format store.Format, quality float64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, s, format, quality); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write output file: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to stat output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move output file into place: %w", err)
	}
	return info.Size(), nil
}
