package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageFiles = map[route.Route]string{
	route.Landing: "templates/landing.html",
	route.Upload:  "templates/upload.html",
	route.Results: "templates/results.html",
	route.History: "templates/history.html",
}

var funcs = template.FuncMap{
	"skills":  model.JoinSkills,
	"percent": model.FormatPercent,
	"inc":     func(i int) int { return i + 1 },
}

type pageTemplate struct {
	tmpl *template.Template
}

func (p *pageTemplate) execute(w io.Writer, data page) error {
	if p == nil || p.tmpl == nil {
		return fmt.Errorf("no template for view %q", data.View)
	}
	return p.tmpl.ExecuteTemplate(w, "layout", data)
}

// parsePages builds one template set per view, each sharing the layout.
func parsePages() (map[route.Route]*pageTemplate, error) {
	pages := make(map[route.Route]*pageTemplate, len(pageFiles))
	for r, file := range pageFiles {
		t, err := template.New("layout").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[r] = &pageTemplate{tmpl: t}
	}
	return pages, nil
}
