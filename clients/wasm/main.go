//go:build js && wasm

// instapost WASM — client-side post renderer.
// Compiled with: GOOS=js GOARCH=wasm go build -o instapost.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/design"
	"github.com/xob0t/instapost/pkg/enhance"
	"github.com/xob0t/instapost/pkg/generator"
	"github.com/xob0t/instapost/pkg/imageload"
)

// In-memory asset store for mockup frames registered from JS.
var (
	assetsMu sync.RWMutex
	assets   = make(map[string][]byte)

	loader = imageload.NewLoader(imageload.DefaultUploadLimit)

	compOnce sync.Once
	comp     *compositor.Compositor
	compErr  error
)

func main() {
	fmt.Println("instapost WASM loaded")

	js.Global().Set("goRenderPost", js.FuncOf(renderPost))
	js.Global().Set("goEnhanceImage", js.FuncOf(enhanceImage))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func compositorInstance() (*compositor.Compositor, error) {
	compOnce.Do(func() {
		comp, compErr = compositor.New("")
	})
	return comp, compErr
}

// goRegisterAsset(id, base64Data) — store an asset in Go memory.
func registerAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}

	assetsMu.Lock()
	assets[args[0].String()] = data
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goRemoveAsset(id) — remove an asset from Go memory.
func removeAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	assetsMu.Lock()
	delete(assets, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// sourceFor resolves a design reference: a registered asset ID, or a data/http URL.
func sourceFor(ref string) imageload.Source {
	assetsMu.RLock()
	data, ok := assets[ref]
	assetsMu.RUnlock()
	if ok {
		return imageload.Source{Data: data, Name: ref}
	}
	return imageload.Source{URL: ref}
}

// goRenderPost(designJSON, imageBase64) — render and return base64 JPEG.
// An empty imageBase64 falls back to design.image.source. The photo is
// sharpened before it is placed; a frame that fails to load is skipped.
func renderPost(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need designJSON, imageBase64")
	}

	d, _, err := design.Parse([]byte(args[0].String()))
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	var photo imageload.Source
	if b64 := args[1].String(); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return js.ValueOf("error: invalid base64: " + err.Error())
		}
		photo = imageload.Source{Data: data}
	} else if d.Image.Source != "" {
		photo = sourceFor(d.Image.Source)
	}
	var mockup imageload.Source
	if d.Mockup != "" {
		mockup = sourceFor(d.Mockup)
	}

	c, err := compositorInstance()
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	r := &design.Renderer{Loader: loader, Compositor: c}
	img, err := r.Draw(context.Background(), d, photo, mockup)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	data, err := generator.EncodeJPEG(img, generator.DefaultQuality)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	return js.ValueOf(base64.StdEncoding.EncodeToString(data))
}

// goEnhanceImage(imageBase64) — sharpen and return base64 JPEG.
func enhanceImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need imageBase64")
	}
	data, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}

	img, err := loader.Load(context.Background(), imageload.Source{Data: data})
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	out, err := enhance.Enhance(img)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(out.Data))
}
