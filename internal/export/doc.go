// Package export renders annotated micrographs to files.
//
// A Scene is an optional background bitmap plus the render shapes of the
// annotations selected by an export payload. Scenes are rasterized with gg
// for PNG and JPEG, written as vector SVG with the background embedded as a
// data URL, or rasterized and placed on a single PDF page.
//
// The package also provides the save collaborator, which keeps the full
// annotation list as a JSON array in local storage.
package export
