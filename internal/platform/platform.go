// Package platform declares the rendering-side collaborators the embedding
// application supplies to the bridge: coordinate hit testing, synthetic
// input injection, and the raw pointer stream. The bridge never touches a
// rendering surface directly, which keeps hit-test and injection logic
// unit-testable with fakes.
package platform

// Node is an opaque handle to a rendered visual node resolved by screen
// coordinate. Implementations wrap whatever the host's UI tree uses for
// node identity.
type Node interface {
	// Same reports whether other refers to the same visual node.
	Same(other Node) bool

	// Contains reports whether other is a descendant of this node.
	Contains(other Node) bool

	// Opaque reports whether this node is an undifferentiated drawing
	// surface (e.g. a pixel canvas) whose identity carries no information
	// about what is drawn at a given point.
	Opaque() bool
}

// HitTester resolves which visual node occupies a screen coordinate.
type HitTester interface {
	// NodeAt returns the node at (x, y), or nil when nothing is there.
	NodeAt(x, y float64) Node
}

// Injector dispatches a synthetic interaction sequence at screen
// coordinates: pointer-down, pointer-up, then click, each propagating to
// ancestor handlers.
type Injector interface {
	TapAt(x, y float64, target Node) error
}

// PointerSource delivers raw pointer-down interactions from the host's
// interactive surface. Subscribe returns a cancel function that removes
// the listener; after cancel returns no further callbacks are delivered.
type PointerSource interface {
	Subscribe(fn func(x, y float64)) (cancel func())
}
