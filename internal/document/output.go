package document

import (
	"errors"

	"github.com/ironsheep/micro-annotate-mcp/internal/export"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
)

// ErrNoSaver is returned by Save when no save target is configured.
var ErrNoSaver = errors.New("no save target configured")

// ExportResult describes a written export file.
type ExportResult struct {
	Path        string       `json:"path"`
	Format      store.Format `json:"format"`
	Bytes       int64        `json:"bytes"`
	Annotations int          `json:"annotations"`
}

// Payload assembles the export payload. The image URL defaults to the
// path of the loaded background.
func (d *Document) Payload(opts store.ExportOptions) (store.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.payload(opts)
}

func (d *Document) payload(opts store.ExportOptions) (store.Payload, error) {
	if opts.ImageURL == "" {
		opts.ImageURL = d.imagePath
	}
	return d.store.Payload(opts)
}

// Export renders the background and the selected annotations to path.
func (d *Document) Export(opts store.ExportOptions, path string) (ExportResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.payload(opts)
	if err != nil {
		return ExportResult{}, err
	}
	w, h := d.surface.Size()
	scene := export.NewScene(p, d.surface.Background(), w, h)
	n, err := export.WriteFile(path, scene, p.Format, p.Quality)
	if err != nil {
		return ExportResult{}, err
	}
	d.log.Info("exported", "path", path, "format", p.Format, "annotations", len(p.Annotations), "bytes", n)
	return ExportResult{Path: path, Format: p.Format, Bytes: n, Annotations: len(p.Annotations)}, nil
}

// Save hands the full annotation list to the save target and returns how
// many annotations were saved.
func (d *Document) Save() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saver == nil {
		return 0, ErrNoSaver
	}
	recs := d.store.List()
	if err := d.saver.Save(recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}
