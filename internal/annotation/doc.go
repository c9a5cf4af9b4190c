// Package annotation defines the annotation data model: the closed set of
// annotation types and tools, the Record each placed annotation is stored as,
// and the Shape primitives the canvas renders.
//
// # Records and shapes
//
// A Record is the sole semantic owner of an annotation. The canvas holds the
// matching shapes only for rendering and hit-testing, keyed by a handle that
// maps back to the record's ID. Records never embed their shapes.
//
// # Tools
//
// Tool is a closed enumeration. Each tool produces exactly one Type and
// consumes pointer input in one of three ways (Input): a single click, two
// sequential clicks, or a press-drag-release gesture. Tools are encoded by
// name in JSON ("linear", "revision-cloud", ...).
//
// # Control points
//
// Every record exposes ControlPoints, the editable points behind the canvas
// selection handles, in a fixed order per type:
//
//	text         position
//	dimension    start, end
//	circle       center, rim (center + radius along +X)
//	leader       anchor, tail
//	centerline   start, end
//	cloud        every vertex
//	hatch        top-left, bottom-right
package annotation
