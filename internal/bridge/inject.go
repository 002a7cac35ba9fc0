package bridge

import (
	"errors"
	"fmt"

	"github.com/mj1618/game-bridge/internal/platform"
)

// Sentinel errors surfaced through tapElement failure responses.
var (
	ErrElementNotRegistered = errors.New("element is not registered")
	ErrElementNotVisible    = errors.New("element has no current position")
	ErrInjectionUnavailable = errors.New("input injection is not available")
)

// tapElement drives the application: it reads the named element's current
// position and injects a synthetic pointer-down, pointer-up, click sequence
// there. This is the write-path inverse of the tap router's read path. No
// injection is attempted when the element is unregistered or currently has
// no position.
func (b *Bridge) tapElement(path string) error {
	getter, ok := b.registry.Element(path)
	if !ok {
		return fmt.Errorf("%q: %w", path, ErrElementNotRegistered)
	}

	pos := getter()
	if pos == nil {
		return fmt.Errorf("%q: %w", path, ErrElementNotVisible)
	}

	if b.provider.Injector == nil {
		return ErrInjectionUnavailable
	}

	// Resolve whatever node currently occupies the position so the
	// injector can target it directly; nil is acceptable and means the
	// injector dispatches to the surface at those coordinates.
	node := nodeAtOrNil(b.provider.HitTester, pos.X, pos.Y)

	b.logger.Debug("injecting synthetic tap", "element", path, "x", pos.X, "y", pos.Y)
	if err := b.provider.Injector.TapAt(pos.X, pos.Y, node); err != nil {
		return fmt.Errorf("inject tap at %q: %w", path, err)
	}
	return nil
}

// nodeAtOrNil hit-tests when a tester is available; otherwise nil.
func nodeAtOrNil(h platform.HitTester, x, y float64) platform.Node {
	if h == nil {
		return nil
	}
	return h.NodeAt(x, y)
}
