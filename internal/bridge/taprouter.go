package bridge

import (
	"log/slog"
	"math"
	"sync"

	"github.com/mj1618/game-bridge/internal/platform"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// DefaultTapThreshold is the maximum distance, in pixels, between a tap and
// an element's position for the opaque-surface strategy to count it as a
// hit.
const DefaultTapThreshold = 35.0

// tapRouter observes raw pointer-down interactions and decides which
// registered element, if any, the user tapped. Two strategies cover the two
// rendering models: node identity comparison when the tapped point resolves
// to an addressable node, nearest-within-threshold distance otherwise.
type tapRouter struct {
	registry  *Registry
	hit       platform.HitTester
	pointer   platform.PointerSource
	threshold float64
	logger    *slog.Logger

	// emit sends one elementTapped event frame.
	emit func(protocol.Event)

	mu     sync.Mutex
	cancel func()
}

// arm subscribes to the pointer stream. Called when the first element is
// registered; a no-op when already monitoring or when no pointer source is
// available (explicit tap mode).
func (r *tapRouter) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil || r.pointer == nil {
		return
	}
	r.cancel = r.pointer.Subscribe(r.pointerDown)
	r.logger.Debug("tap router monitoring pointer events")
}

// teardown removes the pointer subscription.
func (r *tapRouter) teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// pointerDown evaluates one pointer-down interaction. At most one
// elementTapped event is emitted per interaction; a tap matching no
// candidate is a silent no-op.
func (r *tapRouter) pointerDown(x, y float64) {
	if r.registry.ElementCount() == 0 {
		return
	}

	var tapped platform.Node
	if r.hit != nil {
		tapped = r.hit.NodeAt(x, y)
	}

	// The strategy is chosen once per evaluation from what occupies the
	// tapped point: an addressable node means node identity is meaningful;
	// an opaque drawing surface (or nothing at all) means only geometry
	// can decide.
	if tapped != nil && !tapped.Opaque() {
		r.matchByNode(tapped, x, y)
		return
	}
	r.matchByDistance(x, y)
}

// matchByNode resolves each candidate element's position to a node and
// matches when the tapped node equals, contains, or is contained by it.
// Candidates are evaluated in registration order; first match wins.
func (r *tapRouter) matchByNode(tapped platform.Node, tapX, tapY float64) {
	for _, name := range r.registry.ElementNames() {
		getter, ok := r.registry.Element(name)
		if !ok {
			continue
		}
		pos := getter()
		if pos == nil {
			continue
		}
		node := r.hit.NodeAt(pos.X, pos.Y)
		if node == nil || node.Opaque() {
			continue
		}
		if tapped.Same(node) || node.Contains(tapped) || tapped.Contains(node) {
			r.emit(protocol.NewEvent(protocol.EventElementTapped, protocol.TappedEventData{
				Element:   name,
				MatchType: protocol.MatchDOM,
				TapX:      round(tapX),
				TapY:      round(tapY),
				ElementX:  round(pos.X),
				ElementY:  round(pos.Y),
			}))
			return
		}
	}
}

// matchByDistance selects the element whose position is nearest the tap,
// but only when that distance is strictly under the threshold. Elements
// are scanned in registration order with a strict less-than comparison, so
// an exact tie keeps the earlier-registered element.
func (r *tapRouter) matchByDistance(tapX, tapY float64) {
	var (
		bestName string
		bestPos  *protocol.Position
		bestDist = math.Inf(1)
	)

	for _, name := range r.registry.ElementNames() {
		getter, ok := r.registry.Element(name)
		if !ok {
			continue
		}
		pos := getter()
		if pos == nil {
			continue
		}
		dist := math.Hypot(pos.X-tapX, pos.Y-tapY)
		if dist < bestDist {
			bestName, bestPos, bestDist = name, pos, dist
		}
	}

	if bestPos == nil || bestDist >= r.threshold {
		return
	}

	r.emit(protocol.NewEvent(protocol.EventElementTapped, protocol.TappedEventData{
		Element:   bestName,
		MatchType: protocol.MatchCanvas,
		TapX:      round(tapX),
		TapY:      round(tapY),
		ElementX:  round(bestPos.X),
		ElementY:  round(bestPos.Y),
		Dist:      math.Round(bestDist),
	}))
}

func round(v float64) int {
	return int(math.Round(v))
}
