// Package locator models element lookups as ordered fallback sets.
package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

// Kind is the lookup strategy of a Locator.
type Kind int

// Locator kinds
const (
	KindID Kind = iota
	KindName
	KindXPath
	KindClass
	KindLinkText
	KindPartialLinkText
	KindCSS
	KindTag
	KindRelative
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	case KindXPath:
		return "xpath"
	case KindClass:
		return "class"
	case KindLinkText:
		return "linkText"
	case KindPartialLinkText:
		return "partialLinkText"
	case KindCSS:
		return "css"
	case KindTag:
		return "tag"
	case KindRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// Direction positions a relative locator against its anchor.
type Direction int

// Directions
const (
	Below Direction = iota
	Above
	LeftOf
	RightOf
	Near
)

func (d Direction) String() string {
	switch d {
	case Below:
		return "below"
	case Above:
		return "above"
	case LeftOf:
		return "leftOf"
	case RightOf:
		return "rightOf"
	case Near:
		return "near"
	default:
		return "unknown"
	}
}

// NearDistance is the maximum gap in pixels for Near.
const NearDistance = 50

// Locator is one lookup strategy. Relative locators match elements of
// kind Target positioned in Direction from the first Anchor match.
type Locator struct {
	Kind      Kind
	Value     string
	Target    Kind
	Anchor    *Set
	Direction Direction
}

// ID locates by element id.
func ID(v string) Locator { return Locator{Kind: KindID, Value: v} }

// Name locates by name attribute.
func Name(v string) Locator { return Locator{Kind: KindName, Value: v} }

// XPath locates by XPath expression.
func XPath(v string) Locator { return Locator{Kind: KindXPath, Value: v} }

// Class locates by a single CSS class name.
func Class(v string) Locator { return Locator{Kind: KindClass, Value: v} }

// LinkText locates anchors by their exact, trimmed text.
func LinkText(v string) Locator { return Locator{Kind: KindLinkText, Value: v} }

// PartialLinkText locates anchors whose text contains v.
func PartialLinkText(v string) Locator { return Locator{Kind: KindPartialLinkText, Value: v} }

// CSS locates by CSS selector.
func CSS(v string) Locator { return Locator{Kind: KindCSS, Value: v} }

// Tag locates by tag name.
func Tag(v string) Locator { return Locator{Kind: KindTag, Value: v} }

// Relative locates target-kind elements positioned against anchor.
// target must not itself be relative.
func Relative(target Locator, dir Direction, anchor Set) Locator {
	a := anchor
	return Locator{Kind: KindRelative, Value: target.Value, Anchor: &a, Direction: dir, Target: target.Kind}
}

// Query converts a non-relative locator into a session query.
func (l Locator) Query() (session.Query, error) {
	kind := l.Kind
	if kind == KindRelative {
		kind = l.Target
	}
	switch kind {
	case KindID:
		return session.Query{By: session.ByID, Value: l.Value}, nil
	case KindName:
		return session.Query{By: session.ByName, Value: l.Value}, nil
	case KindXPath:
		return session.Query{By: session.ByXPath, Value: l.Value}, nil
	case KindClass:
		return session.Query{By: session.ByClassName, Value: l.Value}, nil
	case KindLinkText:
		return session.Query{By: session.ByLinkText, Value: l.Value}, nil
	case KindPartialLinkText:
		return session.Query{By: session.ByPartialLinkText, Value: l.Value}, nil
	case KindCSS:
		return session.Query{By: session.ByCSS, Value: l.Value}, nil
	case KindTag:
		return session.Query{By: session.ByTagName, Value: l.Value}, nil
	}
	return session.Query{}, core.ErrInvalidArgument.WithMessagef("locator kind %s has no direct query", l.Kind)
}

func (l Locator) String() string {
	if l.Kind == KindRelative && l.Anchor != nil {
		return fmt.Sprintf("%s=%s %s %s", l.Target, l.Value, l.Direction, l.Anchor.Name)
	}
	return fmt.Sprintf("%s=%s", l.Kind, l.Value)
}

// Set is an ordered list of fallback locators for one logical target.
type Set struct {
	Name     string
	Locators []Locator
}

// Of builds a Set.
func Of(name string, locators ...Locator) Set {
	return Set{Name: name, Locators: locators}
}

// Describe lists every strategy of the set, for error messages.
func (s Set) Describe() string {
	parts := make([]string, len(s.Locators))
	for i, l := range s.Locators {
		parts[i] = l.String()
	}
	return fmt.Sprintf("%s [%s]", s.Name, strings.Join(parts, " | "))
}

var identRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID checks a caller-supplied identifier before it is interpolated
// into a structural query.
func ValidateID(id string) error {
	if !identRe.MatchString(id) {
		return core.ErrInvalidArgument.WithMessagef("identifier %q must match [A-Za-z0-9_-]+", id)
	}
	return nil
}

// Literal quotes s as an XPath string literal. Strings holding both quote
// kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
