// Package web holds the single-page puzzle UI: index.tmpl renders the
// header, static/app.js draws the grid from /api/puzzle and redraws it on
// every websocket message.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/*.tmpl static/*
var assets embed.FS

// IndexTemplate is the name gin renders for "/".
const IndexTemplate = "index.tmpl"

const defaultTitle = "Puzzle"

// Page is the data index.tmpl expects.
type Page struct {
	Title string
}

// NewPage titles the page after the event, or generically when it has no title.
func NewPage(eventTitle string) Page {
	if t := strings.TrimSpace(eventTitle); t != "" {
		return Page{Title: t}
	}
	return Page{Title: defaultTitle}
}

// StaticFS serves app.js and style.css under /static.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return http.FS(sub)
}

// Templates parses index.tmpl.
func Templates() *template.Template {
	return template.Must(template.ParseFS(assets, "templates/"+IndexTemplate))
}
