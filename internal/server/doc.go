// Package server exposes a microscopy annotation document as MCP (Model
// Context Protocol) tools.
//
// The server is built on mcp-go and communicates over stdio. Every tool
// result is a JSON text block; failures are reported as tool results with
// IsError set rather than protocol errors.
//
// # Available Tools
//
// Background Image:
//   - image_load: Load a micrograph as the background
//   - image_info: Describe the background and its filters
//   - image_sample_color: Get color at pixel or averaged neighborhood
//   - image_detect_circles: Find pores, particles and grains
//   - filter_list, filter_apply, filter_reset: Copy-on-write filter pipeline
//
// Style:
//   - style_get, style_set: Read and change the style of new annotations
//   - style_reapply: Restyle existing annotations (undoable)
//
// Canvas Input:
//   - tool_select: Activate a drawing tool
//   - canvas_press, canvas_move, canvas_release: Pointer events
//   - canvas_commit, canvas_escape: Finish or cancel the current sequence
//   - annotate_place: Create an annotation from a full point list
//   - canvas_hit_test: Find the shape or grip under a point
//   - shape_move, shape_resize, shape_delete: Edit by shape handle
//
// Annotations:
//   - annotations_list, annotation_get
//   - annotation_set_text, annotation_set_visible
//   - annotations_show_all, annotations_hide_all
//   - annotation_delete, annotations_delete_all
//
// History:
//   - history_undo, history_redo
//
// Export:
//   - export_payload: Build the export payload
//   - export_file: Render to PNG, JPG, SVG or PDF
//   - annotations_save: Persist annotations for the next session
//
// Calibration:
//   - calibration_set, calibration_get
//   - calibration_from_scale_bar: Calibrate from a scale bar read with OCR
//
// Captures:
//   - capture_add, capture_list, capture_delete, capture_clear
//
// Tools that discard data carry the destructive hint.
//
// # Usage
//
//	srv := server.New(doc, captures, server.DefaultConfig(), logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
