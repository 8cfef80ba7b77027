package locator

import (
	"context"
	"math"
	"sort"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"go.uber.org/zap"
)

// Match is the outcome of resolving a Set.
type Match struct {
	Elements []session.Element
	Strategy int // index into Set.Locators; -1 when nothing matched
	Tried    int // strategies evaluated
}

// Found reports whether any strategy matched.
func (m Match) Found() bool {
	return len(m.Elements) > 0
}

// First returns the first matched element.
func (m Match) First() (session.Element, bool) {
	if len(m.Elements) == 0 {
		return session.Element{}, false
	}
	return m.Elements[0], true
}

// Resolver evaluates locator sets against a session.
type Resolver struct {
	sess   session.Session
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(sess session.Session, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{sess: sess, logger: logger}
}

// Resolve returns the elements of the first strategy with a non-empty
// result. An exhausted set yields an empty slice and no error; only
// session failures are returned.
func (r *Resolver) Resolve(ctx context.Context, set Set, scope *session.Element) ([]session.Element, error) {
	m, err := r.ResolveMatch(ctx, set, scope)
	return m.Elements, err
}

// ResolveMatch is Resolve that also reports which strategy matched.
func (r *Resolver) ResolveMatch(ctx context.Context, set Set, scope *session.Element) (Match, error) {
	m := Match{Elements: []session.Element{}, Strategy: -1}
	for i, loc := range set.Locators {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		m.Tried = i + 1
		els, err := r.find(ctx, loc, scope)
		if err != nil {
			if absorbable(err) {
				r.logger.Debug("strategy yielded nothing",
					zap.String("target", set.Name), zap.Stringer("locator", loc), zap.Error(err))
				continue
			}
			return m, err
		}
		if len(els) > 0 {
			m.Elements = els
			m.Strategy = i
			if i > 0 {
				r.logger.Debug("resolved by fallback strategy",
					zap.String("target", set.Name), zap.Int("strategy", i), zap.Stringer("locator", loc))
			}
			return m, nil
		}
	}
	return m, nil
}

// absorbable errors mean "no usable result from this strategy".
func absorbable(err error) bool {
	switch core.KindOf(err) {
	case core.KindNotFound, core.KindStale, core.KindInvalidArgument:
		return true
	}
	return false
}

func (r *Resolver) find(ctx context.Context, loc Locator, scope *session.Element) ([]session.Element, error) {
	if loc.Kind == KindRelative {
		return r.findRelative(ctx, loc, scope)
	}
	q, err := loc.Query()
	if err != nil {
		return nil, err
	}
	return r.sess.FindElements(ctx, q, scope)
}

func (r *Resolver) findRelative(ctx context.Context, loc Locator, scope *session.Element) ([]session.Element, error) {
	if loc.Anchor == nil {
		return nil, core.ErrInvalidArgument.WithMessage("relative locator without anchor")
	}
	anchors, err := r.Resolve(ctx, *loc.Anchor, scope)
	if err != nil || len(anchors) == 0 {
		return nil, err
	}
	anchor, err := r.sess.Rect(ctx, anchors[0])
	if err != nil {
		return nil, err
	}

	q, err := loc.Query()
	if err != nil {
		return nil, err
	}
	candidates, err := r.sess.FindElements(ctx, q, scope)
	if err != nil {
		return nil, err
	}

	type placed struct {
		el   session.Element
		dist float64
	}
	var hits []placed
	for _, c := range candidates {
		if c.ID == anchors[0].ID {
			continue
		}
		b, err := r.sess.Rect(ctx, c)
		if err != nil {
			if absorbable(err) {
				continue
			}
			return nil, err
		}
		if Positioned(b, anchor, loc.Direction) {
			hits = append(hits, placed{el: c, dist: centerDistance(b, anchor)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]session.Element, len(hits))
	for i, h := range hits {
		out[i] = h.el
	}
	return out, nil
}

// Positioned reports whether b lies in direction dir from anchor.
func Positioned(b, anchor core.Bounds, dir Direction) bool {
	switch dir {
	case Below:
		return b.Y >= anchor.Y+anchor.Height
	case Above:
		return b.Y+b.Height <= anchor.Y
	case LeftOf:
		return b.X+b.Width <= anchor.X
	case RightOf:
		return b.X >= anchor.X+anchor.Width
	case Near:
		return gap(b, anchor) <= NearDistance
	}
	return false
}

// gap is the shortest distance between the edges of two rectangles.
func gap(a, b core.Bounds) float64 {
	dx := math.Max(0, math.Max(float64(b.X-(a.X+a.Width)), float64(a.X-(b.X+b.Width))))
	dy := math.Max(0, math.Max(float64(b.Y-(a.Y+a.Height)), float64(a.Y-(b.Y+b.Height))))
	return math.Hypot(dx, dy)
}

func centerDistance(a, b core.Bounds) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(float64(ax-bx), float64(ay-by))
}

// Session returns the session the resolver queries.
func (r *Resolver) Session() session.Session {
	return r.sess
}
