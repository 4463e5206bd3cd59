// Package page renders the HTML pages of the web interface.
package page

import (
	"bytes"
	"html/template"
	"io"

	"github.com/pkg/errors"

	"github.com/jkaflik/birdcam/internal/site"
)

// Page is a body plus an optional refresh interval in seconds. A page with
// Refresh > 0 makes the browser request the same URL again after that time.
type Page struct {
	Title   string
	Refresh int
	Body    template.HTML
}

// View is what the adjustment form shows. Positions and speed are in degrees.
type View struct {
	Status         string
	OpenPosition   int
	ClosedPosition int
	Speed          int
	MoveCount      uint32
	MovesLeft      int
}

var templates = template.Must(template.New("document").Parse(documentTemplate))

func init() {
	template.Must(templates.New("bodies").Parse(bodyTemplates))
}

func Render(w io.Writer, info site.Info, p Page) error {
	err := templates.ExecuteTemplate(w, "document", struct {
		Site site.Info
		Page Page
	}{info, p})

	return errors.Wrapf(err, "render %q", p.Title)
}

func body(name string, data interface{}) template.HTML {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		panic(errors.Wrapf(err, "page: %s body", name))
	}
	return template.HTML(buf.String())
}

// Index is the start page. When the shutter was left open it warns about it.
func Index(closed bool) Page {
	if closed {
		return Page{Title: "Birdcam", Body: body("index", nil)}
	}
	return Page{Title: "Birdcam", Body: body("index-open", nil)}
}

func Opened() Page {
	return Page{Title: "Birdcam camera", Body: body("opened", nil)}
}

func Closed() Page {
	return Page{Title: "Birdcam closed", Body: body("closed", nil)}
}

func Adjust(v View, refresh int) Page {
	return Page{Title: "Birdcam servo adjust", Refresh: refresh, Body: body("adjust", v)}
}

func SiteInfo(info site.Info) Page {
	return Page{Title: "Birdcam site info", Body: body("siteinfo", info)}
}
