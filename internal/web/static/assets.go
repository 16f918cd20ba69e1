// Package static provides the embedded assets for the chat interface.
package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed index.html css/*.css js/*.js
var assetsFS embed.FS

// Handler returns an http.Handler that serves the embedded static assets.
func Handler() http.Handler {
	sub, err := fs.Sub(assetsFS, ".")
	if err != nil {
		// Cannot happen with embed.FS and ".", fail fast if it ever does.
		panic(fmt.Sprintf("static: creating sub-filesystem: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

// Index returns the embedded chat page.
func Index() []byte {
	b, err := assetsFS.ReadFile("index.html")
	if err != nil {
		panic(fmt.Sprintf("static: reading index.html: %v", err))
	}
	return b
}
