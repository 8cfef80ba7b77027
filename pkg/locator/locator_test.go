package locator

import (
	"errors"
	"strings"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

func TestLocator_Query(t *testing.T) {
	tests := []struct {
		loc  Locator
		want session.Query
	}{
		{ID("cart_info_table"), session.Query{By: session.ByID, Value: "cart_info_table"}},
		{Name("message"), session.Query{By: session.ByName, Value: "message"}},
		{XPath("//a"), session.Query{By: session.ByXPath, Value: "//a"}},
		{Class("cart_quantity_delete"), session.Query{By: session.ByClassName, Value: "cart_quantity_delete"}},
		{LinkText(" Products"), session.Query{By: session.ByLinkText, Value: " Products"}},
		{PartialLinkText("Cart"), session.Query{By: session.ByPartialLinkText, Value: "Cart"}},
		{CSS("tr.cart"), session.Query{By: session.ByCSS, Value: "tr.cart"}},
		{Tag("button"), session.Query{By: session.ByTagName, Value: "button"}},
		{Relative(Tag("button"), Below, Of("password", Name("password"))), session.Query{By: session.ByTagName, Value: "button"}},
	}
	for _, tt := range tests {
		got, err := tt.loc.Query()
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.loc, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: Query() = %v, want %v", tt.loc, got, tt.want)
		}
	}
}

func TestSet_Describe(t *testing.T) {
	set := Of("delete link", XPath("//a[@class='x']"), LinkText("Delete"))
	got := set.Describe()
	if !strings.HasPrefix(got, "delete link [") || !strings.Contains(got, "xpath=//a[@class='x'] | linkText=Delete") {
		t.Errorf("Describe() = %q", got)
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"1", "43", "product-7", "abc_DEF"}
	invalid := []string{"", "1']", "1 or 1=1", "a/b", "\"x\""}

	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}
	for _, id := range invalid {
		if err := ValidateID(id); !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidArgument", id, err)
		}
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Order Placed!", "'Order Placed!'"},
		{"it's", `"it's"`},
		{`a'b"c`, `concat('a', "'", 'b"c')`},
	}
	for _, tt := range tests {
		if got := Literal(tt.in); got != tt.want {
			t.Errorf("Literal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPositioned(t *testing.T) {
	anchor := core.Bounds{X: 100, Y: 100, Width: 100, Height: 20}

	tests := []struct {
		name string
		b    core.Bounds
		dir  Direction
		want bool
	}{
		{"below", core.Bounds{X: 100, Y: 130, Width: 50, Height: 20}, Below, true},
		{"overlapping is not below", core.Bounds{X: 100, Y: 110, Width: 50, Height: 20}, Below, false},
		{"above", core.Bounds{X: 100, Y: 50, Width: 50, Height: 20}, Above, true},
		{"left", core.Bounds{X: 10, Y: 100, Width: 50, Height: 20}, LeftOf, true},
		{"right", core.Bounds{X: 250, Y: 100, Width: 50, Height: 20}, RightOf, true},
		{"near", core.Bounds{X: 230, Y: 100, Width: 10, Height: 10}, Near, true},
		{"far", core.Bounds{X: 400, Y: 400, Width: 10, Height: 10}, Near, false},
	}
	for _, tt := range tests {
		if got := Positioned(tt.b, anchor, tt.dir); got != tt.want {
			t.Errorf("%s: Positioned() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
