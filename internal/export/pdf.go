package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// WritePDF rasterizes the scene and places it on a single PDF page.
func WritePDF(w io.Writer, s Scene) error {
	var page bytes.Buffer
	if err := WritePNG(&page, s); err != nil {
		return err
	}

	imp := pdfcpu.DefaultImportConfig()
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, []io.Reader{&page}, imp, conf); err != nil {
		return fmt.Errorf("pdfcpu import: %w", err)
	}
	return nil
}
