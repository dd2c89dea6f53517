// Package pages holds the static informational and error pages served as HTML.
package pages

import (
	"embed"
	"net/http"
)

//go:embed html/*.html
var files embed.FS

func load(name string) []byte {
	b, err := files.ReadFile("html/" + name + ".html")
	if err != nil {
		panic("pages: missing " + name)
	}
	return b
}

var (
	about = load("about")
	rules = load("rules")

	errorPages = map[int][]byte{
		http.StatusForbidden:           load("403"),
		http.StatusNotFound:            load("404"),
		http.StatusInternalServerError: load("500"),
	}
)

// About returns the "about the project" page.
func About() []byte { return about }

// Rules returns the site rules page.
func Rules() []byte { return rules }

// ErrorPage returns the page for an HTTP error status, if there is one.
func ErrorPage(status int) ([]byte, bool) {
	b, ok := errorPages[status]
	return b, ok
}
