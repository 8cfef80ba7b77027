package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Snapshot summarizes a captured page for failure diagnostics.
type Snapshot struct {
	URL      string   `json:"url,omitempty"`
	Title    string   `json:"title"`
	Headings []string `json:"headings,omitempty"`
	Messages []string `json:"messages,omitempty"` // Alert, error and validation texts
	Fields   []string `json:"fields,omitempty"`   // name or id of each visible form control
	Links    int      `json:"links"`
	Iframes  int      `json:"iframes"`
}

const maxSnapshotItems = 20

// ParseSnapshot extracts a Snapshot from page HTML.
func ParseSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, core.ErrInvalidArgument.WithMessage("failed to parse HTML").WithCause(err)
	}

	snap := &Snapshot{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Links:   doc.Find("a[href]").Length(),
		Iframes: doc.Find("iframe").Length(),
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if t := collapse(s.Text()); t != "" {
			snap.Headings = append(snap.Headings, t)
		}
		return len(snap.Headings) < maxSnapshotItems
	})

	seen := map[string]bool{}
	doc.Find(".alert, .alert-danger, .alert-success, .error, .help-block, form p[style*='red'], p[style*='color: red']").Each(func(i int, s *goquery.Selection) {
		t := collapse(s.Text())
		if t != "" && !seen[t] && len(snap.Messages) < maxSnapshotItems {
			seen[t] = true
			snap.Messages = append(snap.Messages, t)
		}
	})

	doc.Find("input, select, textarea").Each(func(i int, s *goquery.Selection) {
		if typ, _ := s.Attr("type"); typ == "hidden" {
			return
		}
		name, ok := s.Attr("name")
		if !ok || name == "" {
			name, _ = s.Attr("id")
		}
		if name != "" && len(snap.Fields) < maxSnapshotItems {
			snap.Fields = append(snap.Fields, name)
		}
	})

	return snap, nil
}

// Capture reads the page source and URL from sess and parses them.
func Capture(ctx context.Context, sess Session) (*Snapshot, string, error) {
	html, err := sess.PageSource(ctx)
	if err != nil {
		return nil, "", err
	}
	snap, err := ParseSnapshot(html)
	if err != nil {
		return nil, html, err
	}
	if u, err := sess.CurrentURL(ctx); err == nil {
		snap.URL = u
	}
	return snap, html, nil
}

// Summary renders the snapshot as a single report line.
func (s *Snapshot) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title=%q", s.Title)
	if s.URL != "" {
		fmt.Fprintf(&b, " url=%s", s.URL)
	}
	if len(s.Headings) > 0 {
		fmt.Fprintf(&b, " headings=[%s]", strings.Join(s.Headings, "; "))
	}
	if len(s.Messages) > 0 {
		fmt.Fprintf(&b, " messages=[%s]", strings.Join(s.Messages, "; "))
	}
	fmt.Fprintf(&b, " fields=%d iframes=%d", len(s.Fields), s.Iframes)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
