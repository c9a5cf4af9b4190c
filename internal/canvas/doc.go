// Package canvas implements the annotation drawing surface.
//
// The surface holds render shapes in an arena keyed by stable handles, with an
// index from each handle to the annotation that owns it. Records never hold
// shapes and shapes never hold records; the index is the only link, so the
// semantic model and the rendering layer can change independently.
//
// The surface also routes pointer events to the active tool session, hit-tests
// shapes and selection grips, and reports direct manipulation (drag, grip
// resize, delete) through Events so the owner can reconcile its records.
package canvas
