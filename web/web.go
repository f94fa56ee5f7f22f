// Package web embeds the HTML templates and static assets into the binary,
// so the server runs from any working directory.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var files embed.FS

// Templates returns the template directory (base.html, index.html).
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}

// Static returns the directory served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
