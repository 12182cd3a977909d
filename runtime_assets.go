package blockform

import (
	"embed"
	"io/fs"
)

//go:embed pkg/runtime/assets/blockform/js/*.js
var embeddedRuntimeAssets embed.FS

// RuntimeAssetsFS exposes the client-side block initialisers (committed under
// pkg/runtime/assets) so Go applications can serve them without a bundler.
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(blockform.RuntimeAssetsFS()),
//	  ),
//	)
func RuntimeAssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedRuntimeAssets, "pkg/runtime/assets")
	if err != nil {
		return embeddedRuntimeAssets
	}
	return sub
}
