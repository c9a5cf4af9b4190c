package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
	"github.com/ironsheep/micro-annotate-mcp/internal/calibration"
	"github.com/ironsheep/micro-annotate-mcp/internal/canvas"
	"github.com/ironsheep/micro-annotate-mcp/internal/capture"
	"github.com/ironsheep/micro-annotate-mcp/internal/document"
	"github.com/ironsheep/micro-annotate-mcp/internal/factory"
	"github.com/ironsheep/micro-annotate-mcp/internal/filter"
	"github.com/ironsheep/micro-annotate-mcp/internal/geom"
	"github.com/ironsheep/micro-annotate-mcp/internal/store"
	"github.com/ironsheep/micro-annotate-mcp/internal/style"
)

// errConfirm is returned by bulk deletes called without confirm=true.
var errConfirm = errors.New("confirm must be true")

// bind decodes the tool arguments into v.
func bind(req mcp.CallToolRequest, v any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(req mcp.CallToolRequest) (any, error) {
	var args imageLoadArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, errors.New("path is required")
	}
	return s.doc.LoadImage(args.Path)
}

func (s *Server) handleImageInfo(req mcp.CallToolRequest) (any, error) {
	return s.doc.ImageInfo()
}

type sampleColorArgs struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"radius"`
}

func (s *Server) handleImageSampleColor(req mcp.CallToolRequest) (any, error) {
	var args sampleColorArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.SampleColor(args.X, args.Y, args.Radius)
}

type detectCirclesArgs struct {
	MinRadius int `json:"min_radius"`
	MaxRadius int `json:"max_radius"`
}

func (s *Server) handleImageDetectCircles(req mcp.CallToolRequest) (any, error) {
	args := detectCirclesArgs{MinRadius: 5, MaxRadius: 50}
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.DetectCircles(args.MinRadius, args.MaxRadius)
}

func (s *Server) handleFilterList(req mcp.CallToolRequest) (any, error) {
	return map[string]any{"filters": filter.Definitions()}, nil
}

type filterApplyArgs struct {
	Name   string        `json:"name"`
	Params filter.Params `json:"params"`
	Steps  []filter.Step `json:"steps"`
}

func (s *Server) handleFilterApply(req mcp.CallToolRequest) (any, error) {
	var args filterApplyArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	switch {
	case len(args.Steps) > 0:
		return s.doc.ApplyChain(args.Steps)
	case args.Name != "":
		return s.doc.ApplyFilter(args.Name, args.Params)
	}
	return nil, errors.New("name or steps is required")
}

func (s *Server) handleFilterReset(req mcp.CallToolRequest) (any, error) {
	return s.doc.ResetFilters()
}

// === Style handlers ===

func (s *Server) handleStyleGet(req mcp.CallToolRequest) (any, error) {
	return s.doc.Style(), nil
}

func (s *Server) handleStyleSet(req mcp.CallToolRequest) (any, error) {
	values := make(map[string]any)
	for _, f := range style.Fields() {
		if v, ok := req.GetArguments()[string(f)]; ok {
			values[string(f)] = v
		}
	}
	if len(values) == 0 {
		return nil, errors.New("no style fields given")
	}
	return s.doc.SetStyle(values)
}

type idsArgs struct {
	IDs []annotation.ID `json:"ids"`
}

func (s *Server) handleStyleReapply(req mcp.CallToolRequest) (any, error) {
	var args idsArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	recs, err := s.doc.ReapplyStyle(args.IDs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"restyled": len(recs), "annotations": recs}, nil
}

// === Canvas handlers ===

// pointerResult reports the annotation a pointer event completed, if any,
// and the tool state after the event.
type pointerResult struct {
	Committed *annotation.Record `json:"committed,omitempty"`
	Label     string             `json:"label,omitempty"`
	Tool      canvas.ToolState   `json:"tool"`
}

func (s *Server) pointerState(b *factory.Built) pointerResult {
	res := pointerResult{Tool: s.doc.ActiveTool()}
	if b != nil {
		rec := b.Record
		res.Committed = &rec
		res.Label = rec.Label()
	}
	return res
}

type toolSelectArgs struct {
	Tool string `json:"tool"`
	Text string `json:"text"`
}

func (s *Server) handleToolSelect(req mcp.CallToolRequest) (any, error) {
	var args toolSelectArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	tool := annotation.ToolNone
	if args.Tool != annotation.ToolNone.String() {
		t, err := annotation.ParseTool(args.Tool)
		if err != nil {
			return nil, err
		}
		tool = t
	}
	state, err := s.doc.SelectTool(tool)
	if err != nil {
		return nil, err
	}
	if args.Text != "" {
		s.doc.SupplyText(args.Text)
	}
	return state, nil
}

type pointArgs struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

func (a pointArgs) point() geom.Point { return geom.Pt(a.X, a.Y) }

func (s *Server) handleCanvasPress(req mcp.CallToolRequest) (any, error) {
	var args pointArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if args.Text != "" {
		s.doc.SupplyText(args.Text)
	}
	b, err := s.doc.Press(args.point())
	if err != nil {
		return nil, err
	}
	return s.pointerState(b), nil
}

func (s *Server) handleCanvasMove(req mcp.CallToolRequest) (any, error) {
	var args pointArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	s.doc.Move(args.point())
	return s.pointerState(nil), nil
}

func (s *Server) handleCanvasRelease(req mcp.CallToolRequest) (any, error) {
	var args pointArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	b, err := s.doc.Release(args.point())
	if err != nil {
		return nil, err
	}
	return s.pointerState(b), nil
}

func (s *Server) handleCanvasCommit(req mcp.CallToolRequest) (any, error) {
	b, err := s.doc.Commit()
	if err != nil {
		return nil, err
	}
	return s.pointerState(b), nil
}

func (s *Server) handleCanvasEscape(req mcp.CallToolRequest) (any, error) {
	s.doc.Escape()
	return s.pointerState(nil), nil
}

type placeArgs struct {
	Tool   string       `json:"tool"`
	Points []geom.Point `json:"points"`
	Text   string       `json:"text"`
}

func (s *Server) handleAnnotatePlace(req mcp.CallToolRequest) (any, error) {
	var args placeArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	tool, err := annotation.ParseTool(args.Tool)
	if err != nil {
		return nil, err
	}
	b, err := s.doc.Place(tool, args.Points, args.Text)
	if err != nil {
		return nil, err
	}
	return s.pointerState(b), nil
}

func (s *Server) handleCanvasHitTest(req mcp.CallToolRequest) (any, error) {
	var args pointArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	hit, ok := s.doc.HitTest(args.point())
	if !ok {
		return map[string]any{"hit": false}, nil
	}
	return map[string]any{"hit": true, "target": hit}, nil
}

type shapeMoveArgs struct {
	Handle canvas.Handle `json:"handle"`
	DX     float64       `json:"dx"`
	DY     float64       `json:"dy"`
}

func (s *Server) handleShapeMove(req mcp.CallToolRequest) (any, error) {
	var args shapeMoveArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.DragShape(args.Handle, args.DX, args.DY)
}

type shapeResizeArgs struct {
	ID   annotation.ID `json:"id"`
	Grip int           `json:"grip"`
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
}

func (s *Server) handleShapeResize(req mcp.CallToolRequest) (any, error) {
	var args shapeResizeArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.DragGrip(args.ID, args.Grip, geom.Pt(args.X, args.Y))
}

type handleArgs struct {
	Handle canvas.Handle `json:"handle"`
}

func (s *Server) handleShapeDelete(req mcp.CallToolRequest) (any, error) {
	var args handleArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	id, err := s.doc.DeleteShape(args.Handle)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}

// === Annotation handlers ===

type listArgs struct {
	Grouped bool `json:"grouped"`
}

func (s *Server) handleAnnotationsList(req mcp.CallToolRequest) (any, error) {
	var args listArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if args.Grouped {
		return map[string]any{"count": s.doc.Len(), "groups": s.doc.Groups()}, nil
	}
	return map[string]any{"count": s.doc.Len(), "annotations": s.doc.Entries()}, nil
}

type idArgs struct {
	ID annotation.ID `json:"id"`
}

func (s *Server) handleAnnotationGet(req mcp.CallToolRequest) (any, error) {
	var args idArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.Get(args.ID)
}

type setTextArgs struct {
	ID   annotation.ID `json:"id"`
	Text string        `json:"text"`
}

func (s *Server) handleAnnotationSetText(req mcp.CallToolRequest) (any, error) {
	var args setTextArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.SetText(args.ID, args.Text)
}

func (s *Server) handleAnnotationDelete(req mcp.CallToolRequest) (any, error) {
	var args idArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if err := s.doc.Delete(args.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": args.ID}, nil
}

type confirmArgs struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleAnnotationsDeleteAll(req mcp.CallToolRequest) (any, error) {
	var args confirmArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	n, err := s.doc.DeleteAll(args.Confirm)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": n}, nil
}

type setVisibleArgs struct {
	ID      annotation.ID `json:"id"`
	Visible bool          `json:"visible"`
}

func (s *Server) handleAnnotationSetVisible(req mcp.CallToolRequest) (any, error) {
	var args setVisibleArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if err := s.doc.SetVisible(args.ID, args.Visible); err != nil {
		return nil, err
	}
	return map[string]any{"id": args.ID, "visible": args.Visible}, nil
}

func (s *Server) handleAnnotationsShowAll(req mcp.CallToolRequest) (any, error) {
	s.doc.ShowAll()
	return map[string]any{"visible": s.doc.Len()}, nil
}

func (s *Server) handleAnnotationsHideAll(req mcp.CallToolRequest) (any, error) {
	s.doc.HideAll()
	return map[string]any{"hidden": s.doc.Len()}, nil
}

// === History handlers ===

type historyResult struct {
	Changed     bool                  `json:"changed"`
	Annotations []annotation.Record   `json:"annotations"`
	History     document.HistoryState `json:"history"`
}

func (s *Server) handleHistoryUndo(req mcp.CallToolRequest) (any, error) {
	recs, changed, err := s.doc.Undo()
	if err != nil {
		return nil, err
	}
	return historyResult{Changed: changed, Annotations: recs, History: s.doc.History()}, nil
}

func (s *Server) handleHistoryRedo(req mcp.CallToolRequest) (any, error) {
	recs, changed, err := s.doc.Redo()
	if err != nil {
		return nil, err
	}
	return historyResult{Changed: changed, Annotations: recs, History: s.doc.History()}, nil
}

// === Export handlers ===

type exportArgs struct {
	Path               string   `json:"path"`
	Format             string   `json:"format"`
	Quality            *float64 `json:"quality"`
	IncludeAnnotations *bool    `json:"include_annotations"`
	VisibleOnly        bool     `json:"visible_only"`
	ImageURL           string   `json:"image_url"`
}

func (a exportArgs) options() store.ExportOptions {
	opts := store.ExportOptions{
		ImageURL:           a.ImageURL,
		Format:             store.Format(a.Format),
		Quality:            0.92,
		IncludeAnnotations: true,
		VisibleOnly:        a.VisibleOnly,
	}
	if opts.Format == "" {
		opts.Format = store.Format(formatFromPath(a.Path))
	}
	if opts.Format == "" {
		opts.Format = store.FormatPNG
	}
	if a.Quality != nil {
		opts.Quality = *a.Quality
	}
	if a.IncludeAnnotations != nil {
		opts.IncludeAnnotations = *a.IncludeAnnotations
	}
	return opts
}

func (s *Server) handleExportPayload(req mcp.CallToolRequest) (any, error) {
	var args exportArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.Payload(args.options())
}

func (s *Server) handleExportFile(req mcp.CallToolRequest) (any, error) {
	var args exportArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, errors.New("path is required")
	}
	return s.doc.Export(args.options(), args.Path)
}

func (s *Server) handleAnnotationsSave(req mcp.CallToolRequest) (any, error) {
	n, err := s.doc.Save()
	if err != nil {
		return nil, err
	}
	return map[string]any{"saved": n}, nil
}

// === Calibration handlers ===

type calibrationArgs struct {
	KnownDistance float64 `json:"known_distance"`
	PixelCount    float64 `json:"pixel_count"`
	Unit          string  `json:"unit"`
	Magnification float64 `json:"magnification"`
	Reset         bool    `json:"reset"`
}

func (s *Server) handleCalibrationSet(req mcp.CallToolRequest) (any, error) {
	var args calibrationArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if args.Reset {
		return s.doc.ResetCalibration(), nil
	}
	if args.Unit == "" {
		args.Unit = calibration.DefaultUnit
	}
	return s.doc.Calibrate(args.KnownDistance, args.PixelCount, args.Unit, args.Magnification)
}

func (s *Server) handleCalibrationGet(req mcp.CallToolRequest) (any, error) {
	return s.doc.Calibration(), nil
}

type scaleBarArgs struct {
	X1            float64 `json:"x1"`
	Y1            float64 `json:"y1"`
	X2            float64 `json:"x2"`
	Y2            float64 `json:"y2"`
	LabelX1       int     `json:"label_x1"`
	LabelY1       int     `json:"label_y1"`
	LabelX2       int     `json:"label_x2"`
	LabelY2       int     `json:"label_y2"`
	Magnification float64 `json:"magnification"`
}

func (s *Server) handleCalibrationFromScaleBar(req mcp.CallToolRequest) (any, error) {
	var args scaleBarArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	return s.doc.CalibrateFromScaleBar(
		geom.Pt(args.X1, args.Y1),
		geom.Pt(args.X2, args.Y2),
		image.Rect(args.LabelX1, args.LabelY1, args.LabelX2, args.LabelY2),
		args.Magnification,
	)
}

// === Capture handlers ===

type captureAddArgs struct {
	Path          string   `json:"path"`
	ImageData     string   `json:"image_data"`
	Magnification string   `json:"magnification"`
	Camera        string   `json:"camera"`
	Notes         string   `json:"notes"`
	Tags          []string `json:"tags"`
	AnalysisType  string   `json:"analysis_type"`
}

func (s *Server) handleCaptureAdd(req mcp.CallToolRequest) (any, error) {
	if s.captures == nil {
		return nil, ErrNoCaptures
	}
	var args captureAddArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	meta := capture.Metadata{
		Magnification: args.Magnification,
		Camera:        args.Camera,
		Notes:         args.Notes,
		Tags:          args.Tags,
		AnalysisType:  args.AnalysisType,
	}

	var (
		c   capture.Capture
		err error
	)
	switch {
	case args.ImageData != "":
		c, err = s.captures.Add(args.ImageData, meta)
	case args.Path != "":
		c, err = s.captures.AddFile(args.Path, s.cfg.CaptureMaxDimension, s.cfg.CaptureQuality, meta)
	default:
		var bg image.Image
		if bg, err = s.doc.Background(); err != nil {
			return nil, err
		}
		c, err = s.captures.AddImage(bg, s.cfg.CaptureMaxDimension, s.cfg.CaptureQuality, meta)
	}
	if err != nil {
		return nil, err
	}
	return captureSummary(c), nil
}

// captureSummary drops the image data, which can be large.
func captureSummary(c capture.Capture) capture.Capture {
	c.ImageData = ""
	return c
}

type captureListArgs struct {
	IncludeImages bool `json:"include_images"`
}

func (s *Server) handleCaptureList(req mcp.CallToolRequest) (any, error) {
	if s.captures == nil {
		return nil, ErrNoCaptures
	}
	var args captureListArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	list := s.captures.List()
	if !args.IncludeImages {
		for i := range list {
			list[i] = captureSummary(list[i])
		}
	}
	return map[string]any{"count": len(list), "captures": list}, nil
}

type captureIDArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleCaptureDelete(req mcp.CallToolRequest) (any, error) {
	if s.captures == nil {
		return nil, ErrNoCaptures
	}
	var args captureIDArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if err := s.captures.Delete(args.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": args.ID}, nil
}

func (s *Server) handleCaptureClear(req mcp.CallToolRequest) (any, error) {
	if s.captures == nil {
		return nil, ErrNoCaptures
	}
	var args confirmArgs
	if err := bind(req, &args); err != nil {
		return nil, err
	}
	if !args.Confirm {
		return nil, errConfirm
	}
	return map[string]any{"deleted": s.captures.Clear()}, nil
}
