// Package printview renders a standalone, read-only HTML document of the
// month, week or day view for printing and for PNG capture.
package printview

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"sessioncal/internal/format"
	"sessioncal/internal/layout"
	"sessioncal/internal/model"
	"sessioncal/internal/nav"
)

//go:embed print.html.tmpl
var pageSource string

var page = template.Must(template.New("print").Funcs(template.FuncMap{
	"time":     format.Time,
	"duration": format.Duration,
	"dayNames": func() [7]string { return format.DayNames },
	"color":    safeColor,
}).Parse(pageSource))

type pageData struct {
	Title string
	View  nav.View
	Month *layout.MonthGrid
	Weeks [][]layout.Cell
	Week  *layout.WeekGrid
	Day   *layout.DayAgenda
}

// Render writes the document for the state's view. The root element carries
// data-ready="true" once everything is laid out.
func Render(w io.Writer, st nav.State, src layout.Lookup) error {
	data := pageData{Title: st.Label(), View: st.View}

	switch st.View {
	case nav.ViewWeek:
		g := layout.Week(st.Selected, src)
		data.Week = &g
		data.Title = "Week of " + layout.WeekStart(st.Selected).Format("January 2, 2006")
	case nav.ViewDay:
		a := layout.Day(st.Selected, src)
		data.Day = &a
		data.Title = a.Title
	default:
		g := layout.Month(st.Year, st.Month, src)
		data.Month = &g
		data.Weeks = g.Weeks()
	}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("printview: %w", err)
	}
	return nil
}

// safeColor lets only validated hex swatches into the style attribute.
func safeColor(c string) template.CSS {
	if !isHex(c) {
		return template.CSS(model.DefaultColor)
	}
	return template.CSS(c)
}

func isHex(c string) bool {
	if (len(c) != 4 && len(c) != 7) || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
