package api

import (
	"embed"
	"io/fs"
	"os"
)

// The browser client is built into assets/ and embedded into the daemon:
//
//	go generate ./internal/api
//
//go:generate env GOOS=js GOARCH=wasm go build -trimpath -o assets/pixelveil.wasm ../../cmd/pixelveil-wasm
//go:generate cp $GOROOT/lib/wasm/wasm_exec.js assets/wasm_exec.js

//go:embed all:assets
var embedded embed.FS

const (
	clientBundle = "pixelveil.wasm"
	clientLoader = "wasm_exec.js"
)

// clientAssets returns the directory the client is served from: dir when
// set, the embedded bundle otherwise.
func clientAssets(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// hasClient reports whether assets holds both files the page loads.
func hasClient(assets fs.FS) bool {
	for _, name := range []string{clientBundle, clientLoader} {
		if st, err := fs.Stat(assets, name); err != nil || st.IsDir() {
			return false
		}
	}
	return true
}
