package server

import (
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ironsheep/micro-annotate-mcp/internal/annotation"
)

func boolPtr(b bool) *bool { return &b }

var (
	// local is the default: tools work on local state and keep existing data.
	local = mcp.WithToolAnnotation(mcp.ToolAnnotation{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	})
	// destructive marks tools that discard annotations or captures.
	destructive = mcp.WithToolAnnotation(mcp.ToolAnnotation{
		DestructiveHint: boolPtr(true),
		OpenWorldHint:   boolPtr(false),
	})
)

// pointSchema describes one {x, y} pixel coordinate.
var pointSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"x": map[string]any{"type": "number"},
		"y": map[string]any{"type": "number"},
	},
	"required": []string{"x", "y"},
}

func toolNames() []string {
	names := []string{annotation.ToolNone.String()}
	for _, t := range annotation.Tools() {
		names = append(names, t.String())
	}
	return names
}

func withXY(verb string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate of the "+verb+" in image pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate of the "+verb+" in image pixels")),
	}
}

func newTool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(desc), local}, opts...)...)
}

// tools returns every tool with its handler, grouped by concern.
func (s *Server) tools() []server.ServerTool {
	var out []server.ServerTool
	for _, group := range [][]server.ServerTool{
		s.imageTools(),
		s.styleTools(),
		s.canvasTools(),
		s.storeTools(),
		s.historyTools(),
		s.exportTools(),
		s.calibrationTools(),
		s.captureTools(),
	} {
		out = append(out, group...)
	}
	return out
}

// === Image ===

func (s *Server) imageTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: newTool("image_load",
				"Load a micrograph (PNG, JPEG, GIF, TIFF or BMP) as the annotation background. Returns its dimensions and format. Annotations are kept.",
				mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the image file")),
			),
			Handler: s.handle(s.handleImageLoad),
		},
		{
			Tool:    newTool("image_info", "Describe the current background and the filters applied to it."),
			Handler: s.handle(s.handleImageInfo),
		},
		{
			Tool: newTool("image_sample_color",
				"Get the color of the background at a pixel, optionally averaged over a square neighborhood. The hex value can be used as a style color.",
				mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate (0-based, from left)")),
				mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate (0-based, from top)")),
				mcp.WithNumber("radius", mcp.Description("Half-size of the averaged square. Default 0 (single pixel)")),
			),
			Handler: s.handle(s.handleImageSampleColor),
		},
		{
			Tool: newTool("image_detect_circles",
				"Find circular features (pores, particles, grains) in the background with a Hough transform.",
				mcp.WithNumber("min_radius", mcp.Description("Minimum radius in pixels. Default 5")),
				mcp.WithNumber("max_radius", mcp.Description("Maximum radius in pixels. Default 50")),
			),
			Handler: s.handle(s.handleImageDetectCircles),
		},
		{
			Tool:    newTool("filter_list", "List the image filters with their default parameters."),
			Handler: s.handle(s.handleFilterList),
		},
		{
			Tool: newTool("filter_apply",
				"Apply a filter, or a chain of filters, to the background. The background is replaced only if every step succeeds.",
				mcp.WithString("name", mcp.Description("Filter name from filter_list")),
				mcp.WithObject("params", mcp.Description("Filter parameters; omitted ones take their defaults")),
				mcp.WithArray("steps",
					mcp.Description("Chain of {name, params} steps, used instead of name"),
					mcp.Items(map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":   map[string]any{"type": "string"},
							"params": map[string]any{"type": "object"},
						},
						"required": []string{"name"},
					}),
				),
			),
			Handler: s.handle(s.handleFilterApply),
		},
		{
			Tool:    newTool("filter_reset", "Restore the background as it was loaded, discarding every applied filter."),
			Handler: s.handle(s.handleFilterReset),
		},
	}
}

// === Style ===

func (s *Server) styleTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool:    newTool("style_get", "Get the current annotation style."),
			Handler: s.handle(s.handleStyleGet),
		},
		{
			Tool: newTool("style_set",
				"Change style fields for annotations created from now on. Existing annotations keep their style until style_reapply.",
				mcp.WithNumber("textSize", mcp.Description("Label text size in pixels")),
				mcp.WithString("textColor", mcp.Description("Label color, #rgb or #rrggbb")),
				mcp.WithString("lineColor", mcp.Description("Line color, #rgb or #rrggbb")),
				mcp.WithNumber("lineWidth", mcp.Description("Line width in pixels")),
				mcp.WithNumber("arrowSize", mcp.Description("Arrowhead length in pixels")),
				mcp.WithNumber("dimensionPrecision", mcp.Description("Decimal places of measurement labels")),
			),
			Handler: s.handle(s.handleStyleSet),
		},
		{
			Tool: newTool("style_reapply",
				"Restyle existing annotations with the current style. Undoable as one step.",
				mcp.WithArray("ids", mcp.Description("Annotation ids; all annotations when omitted"), mcp.Items(map[string]any{"type": "string"})),
			),
			Handler: s.handle(s.handleStyleReapply),
		},
	}
}

// === Canvas ===

func (s *Server) canvasTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: newTool("tool_select",
				"Activate a drawing tool for canvas_press/move/release. Any sequence in progress is discarded.",
				mcp.WithString("tool", mcp.Required(), mcp.Enum(toolNames()...), mcp.Description("Tool name, or none")),
				mcp.WithString("text", mcp.Description("Text for text and leader tools; field name (magnification, pixel_size, unit, date, image) for text-field")),
			),
			Handler: s.handle(s.handleToolSelect),
		},
		{
			Tool: newTool("canvas_press",
				"Press the pointer at a point. Completes click tools and the second click of two-click tools.",
				append(withXY("press"),
					mcp.WithString("text", mcp.Description("Text to place, answering the text prompt")),
				)...,
			),
			Handler: s.handle(s.handleCanvasPress),
		},
		{
			Tool:    newTool("canvas_move", "Move the pointer. Adds a point to a revision cloud being drawn.", withXY("pointer")...),
			Handler: s.handle(s.handleCanvasMove),
		},
		{
			Tool:    newTool("canvas_release", "Release the pointer. Finishes a revision cloud.", withXY("release")...),
			Handler: s.handle(s.handleCanvasRelease),
		},
		{
			Tool:    newTool("canvas_commit", "Finish the sequence in progress early, like pressing Enter. A radius snaps to a detected circle."),
			Handler: s.handle(s.handleCanvasCommit),
		},
		{
			Tool:    newTool("canvas_escape", "Cancel the sequence in progress."),
			Handler: s.handle(s.handleCanvasEscape),
		},
		{
			Tool: newTool("annotate_place",
				"Create an annotation from a complete list of points in one call.",
				mcp.WithString("tool", mcp.Required(), mcp.Enum(toolNames()[1:]...), mcp.Description("Tool name")),
				mcp.WithArray("points", mcp.Required(), mcp.Description("Points in input order"), mcp.Items(pointSchema)),
				mcp.WithString("text", mcp.Description("Label text, or field name for text-field")),
			),
			Handler: s.handle(s.handleAnnotatePlace),
		},
		{
			Tool:    newTool("canvas_hit_test", "Find the topmost visible annotation shape or grip at a point.", withXY("probe")...),
			Handler: s.handle(s.handleCanvasHitTest),
		},
		{
			Tool: newTool("shape_move",
				"Drag the annotation owning a shape handle by an offset.",
				mcp.WithNumber("handle", mcp.Required(), mcp.Description("Shape handle from canvas_hit_test or annotation_get")),
				mcp.WithNumber("dx", mcp.Required(), mcp.Description("Horizontal offset in pixels")),
				mcp.WithNumber("dy", mcp.Required(), mcp.Description("Vertical offset in pixels")),
			),
			Handler: s.handle(s.handleShapeMove),
		},
		{
			Tool: newTool("shape_resize",
				"Drag one control point (grip) of an annotation to a new position. Measurements are recomputed.",
				append([]mcp.ToolOption{
					mcp.WithString("id", mcp.Required(), mcp.Description("Annotation id")),
					mcp.WithNumber("grip", mcp.Required(), mcp.Description("Grip index from annotation_get")),
				}, withXY("grip")...)...,
			),
			Handler: s.handle(s.handleShapeResize),
		},
		{
			Tool: newTool("shape_delete",
				"Delete the annotation owning a shape handle.",
				mcp.WithNumber("handle", mcp.Required(), mcp.Description("Shape handle")),
				destructive,
			),
			Handler: s.handle(s.handleShapeDelete),
		},
	}
}

// === Annotations ===

func (s *Server) storeTools() []server.ServerTool {
	idArg := mcp.WithString("id", mcp.Required(), mcp.Description("Annotation id"))
	return []server.ServerTool{
		{
			Tool: newTool("annotations_list",
				"List annotations in creation order with their visibility.",
				mcp.WithBoolean("grouped", mcp.Description("Group by annotation type. Default false")),
			),
			Handler: s.handle(s.handleAnnotationsList),
		},
		{
			Tool:    newTool("annotation_get", "Get one annotation with its shape handles and grips.", idArg),
			Handler: s.handle(s.handleAnnotationGet),
		},
		{
			Tool: newTool("annotation_set_text",
				"Replace the text of a text or leader annotation.",
				idArg,
				mcp.WithString("text", mcp.Required(), mcp.Description("New text")),
			),
			Handler: s.handle(s.handleAnnotationSetText),
		},
		{
			Tool:    newTool("annotation_delete", "Delete one annotation.", idArg, destructive),
			Handler: s.handle(s.handleAnnotationDelete),
		},
		{
			Tool: newTool("annotations_delete_all",
				"Delete every annotation as one undoable step. Requires confirm=true.",
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
				destructive,
			),
			Handler: s.handle(s.handleAnnotationsDeleteAll),
		},
		{
			Tool: newTool("annotation_set_visible",
				"Show or hide one annotation. Hidden annotations are not drawn, hit or exported with visible_only.",
				idArg,
				mcp.WithBoolean("visible", mcp.Required(), mcp.Description("Whether the annotation is shown")),
			),
			Handler: s.handle(s.handleAnnotationSetVisible),
		},
		{
			Tool:    newTool("annotations_show_all", "Show every annotation."),
			Handler: s.handle(s.handleAnnotationsShowAll),
		},
		{
			Tool:    newTool("annotations_hide_all", "Hide every annotation."),
			Handler: s.handle(s.handleAnnotationsHideAll),
		},
	}
}

// === History ===

func (s *Server) historyTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool:    newTool("history_undo", "Undo the most recent annotation change."),
			Handler: s.handle(s.handleHistoryUndo),
		},
		{
			Tool:    newTool("history_redo", "Redo the most recently undone change."),
			Handler: s.handle(s.handleHistoryRedo),
		},
	}
}

// === Export ===

func exportOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("format", mcp.Enum("png", "jpg", "pdf", "svg"), mcp.Description("Output format. Default png, or from the file extension")),
		mcp.WithNumber("quality", mcp.Description("JPEG quality between 0 and 1. Default 0.92")),
		mcp.WithBoolean("include_annotations", mcp.Description("Draw annotations. Default true")),
		mcp.WithBoolean("visible_only", mcp.Description("Skip hidden annotations. Default false")),
		mcp.WithString("image_url", mcp.Description("Image reference recorded in the payload. Default the loaded path")),
	}
}

func (s *Server) exportTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool:    newTool("export_payload", "Build the export payload: the selected annotations and export options.", exportOptions()...),
			Handler: s.handle(s.handleExportPayload),
		},
		{
			Tool: newTool("export_file",
				"Render the background and annotations to a PNG, JPG, SVG or PDF file.",
				append([]mcp.ToolOption{
					mcp.WithString("path", mcp.Required(), mcp.Description("Absolute output path")),
				}, exportOptions()...)...,
			),
			Handler: s.handle(s.handleExportFile),
		},
		{
			Tool:    newTool("annotations_save", "Save every annotation to local storage. They are restored on the next start."),
			Handler: s.handle(s.handleAnnotationsSave),
		},
	}
}

// === Calibration ===

func (s *Server) calibrationTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: newTool("calibration_set",
				"Calibrate measurements from a reference of known length, or reset to pixels. New annotations use the calibration.",
				mcp.WithNumber("known_distance", mcp.Description("Reference length in the unit")),
				mcp.WithNumber("pixel_count", mcp.Description("Reference length in pixels")),
				mcp.WithString("unit", mcp.Description("Unit, e.g. µm, nm or mm. Default µm")),
				mcp.WithNumber("magnification", mcp.Description("Objective magnification, e.g. 40")),
				mcp.WithBoolean("reset", mcp.Description("Return to uncalibrated pixel measurements")),
			),
			Handler: s.handle(s.handleCalibrationSet),
		},
		{
			Tool:    newTool("calibration_get", "Get the active calibration."),
			Handler: s.handle(s.handleCalibrationGet),
		},
		{
			Tool: newTool("calibration_from_scale_bar",
				"Calibrate from the scale bar burned into the micrograph: give the bar endpoints and the box around its label, which is read with OCR.",
				mcp.WithNumber("x1", mcp.Required(), mcp.Description("Bar start X")),
				mcp.WithNumber("y1", mcp.Required(), mcp.Description("Bar start Y")),
				mcp.WithNumber("x2", mcp.Required(), mcp.Description("Bar end X")),
				mcp.WithNumber("y2", mcp.Required(), mcp.Description("Bar end Y")),
				mcp.WithNumber("label_x1", mcp.Required(), mcp.Description("Label box left edge")),
				mcp.WithNumber("label_y1", mcp.Required(), mcp.Description("Label box top edge")),
				mcp.WithNumber("label_x2", mcp.Required(), mcp.Description("Label box right edge (exclusive)")),
				mcp.WithNumber("label_y2", mcp.Required(), mcp.Description("Label box bottom edge (exclusive)")),
				mcp.WithNumber("magnification", mcp.Description("Objective magnification")),
			),
			Handler: s.handle(s.handleCalibrationFromScaleBar),
		},
	}
}

// === Captures ===

func (s *Server) captureTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: newTool("capture_add",
				"Save a still to the capture list: an image file, a data URL, or the current background when neither is given.",
				mcp.WithString("path", mcp.Description("Image file to capture")),
				mcp.WithString("image_data", mcp.Description("data:image/... URL to store as is")),
				mcp.WithString("magnification", mcp.Description("Objective magnification, e.g. 40x")),
				mcp.WithString("camera", mcp.Description("Camera name")),
				mcp.WithString("notes", mcp.Description("Free-form notes")),
				mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"})),
				mcp.WithString("analysis_type", mcp.Description("Kind of analysis, e.g. grain-size")),
			),
			Handler: s.handle(s.handleCaptureAdd),
		},
		{
			Tool: newTool("capture_list",
				"List saved captures, newest first.",
				mcp.WithBoolean("include_images", mcp.Description("Include the image data URLs. Default false")),
			),
			Handler: s.handle(s.handleCaptureList),
		},
		{
			Tool: newTool("capture_delete",
				"Delete one capture.",
				mcp.WithString("id", mcp.Required(), mcp.Description("Capture id")),
				destructive,
			),
			Handler: s.handle(s.handleCaptureDelete),
		},
		{
			Tool: newTool("capture_clear",
				"Delete every capture. Requires confirm=true.",
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
				destructive,
			),
			Handler: s.handle(s.handleCaptureClear),
		},
	}
}

// formatFromPath guesses an export format from a file extension.
func formatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
