package pages

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
)

func testEnv(s *mock.Session) Env {
	return Env{
		Session: s,
		Site:    config.Defaults().Site,
		Waits: config.WaitConfig{
			Default:   300 * time.Millisecond,
			Short:     100 * time.Millisecond,
			Long:      300 * time.Millisecond,
			AddToCart: 300 * time.Millisecond,
			Poll:      5 * time.Millisecond,
			PageLoad:  300 * time.Millisecond,
		},
		Overlays: []string{`iframe[id^="aswift"]`},
	}
}

// cartRowFixture is one rendered cart row and its cells.
type cartRowFixture struct {
	row, delete *mock.Node
}

// addCartRow renders product id in the cart table the way the site does.
func addCartRow(s *mock.Session, id, qty, price string) cartRowFixture {
	row := s.Add(&mock.Node{Visible: true, Enabled: true, Attrs: map[string]string{"id": "product-" + id}})
	s.Register(session.ByID, "product-"+id, row.ID)
	s.Register(session.ByXPath, fmt.Sprintf(`//*[@id='cart_info_table']//tr[td[@data-product-id='%s']]`, id), row.ID)
	s.Register(session.ByXPath, `//table[@id='cart_info_table']//tbody/tr`, row.ID)

	s.Visible(session.ByXPath, fmt.Sprintf(`//tr[@id='product-%s']//button[@class='disabled']`, id), qty)
	s.Visible(session.ByXPath, fmt.Sprintf(`//tr[@id='product-%s']//td[@class='cart_price']/p`, id), price)
	s.Visible(session.ByXPath, fmt.Sprintf(`//tr[@id='product-%s']//td[@class='cart_total']/p`, id), price)

	del := s.Add(&mock.Node{Visible: true, Enabled: true, Bounds: core.Bounds{Width: 10, Height: 10}})
	del.OnClick = func(s *mock.Session) { s.Detach(row.ID) }
	return cartRowFixture{row: row, delete: del}
}

// withDirectDelete exposes the row's delete link to the document-level query.
func (f cartRowFixture) withDirectDelete(s *mock.Session, id string) cartRowFixture {
	s.Register(session.ByXPath, fmt.Sprintf(`//tr[@id='product-%s']//a[contains(@class,'cart_quantity_delete')]`, id), f.delete.ID)
	return f
}
