//go:build js && wasm

// Command pixelveil-wasm is the browser client served from ui.assetsDir as
// pixelveil.wasm next to Go's wasm_exec.js.
package main

import (
	"context"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/Roelanb/pixelveil/internal/client"
	"github.com/Roelanb/pixelveil/internal/controller"
	"github.com/Roelanb/pixelveil/internal/web"
)

func main() {
	logger, err := zap.NewDevelopment(zap.WithCaller(false))
	if err != nil {
		logger = zap.NewNop()
	}
	log := logger.Sugar()

	doc := js.Global().Get("document")
	pageOrigin := js.Global().Get("location").Get("origin").String()
	origin := doc.Get("body").Get("dataset").Get("origin")
	shareOrigin := pageOrigin
	if origin.Truthy() {
		shareOrigin = origin.String()
	}

	view := web.NewView(doc)
	ctrl := controller.New(controller.Deps{
		API:        client.New(pageOrigin),
		View:       view,
		Picker:     view,
		Downloader: web.Downloader{},
		Opener:     web.Opener{},
		Log:        log,
	}, controller.Options{Origin: shareOrigin})
	ctrl.Init()
	web.Bind(context.Background(), doc, ctrl, log)
	log.Infow("pixelveil client ready", "origin", shareOrigin)

	select {}
}
