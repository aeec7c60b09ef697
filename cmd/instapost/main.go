// instapost — Instagram post compositor for news portals.
//
// Usage:
//
//	instapost render -o <file> --design <path> [options]
//	instapost serve
//	instapost init
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/clients/server"
	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/config"
	"github.com/xob0t/instapost/pkg/design"
	"github.com/xob0t/instapost/pkg/generator"
	"github.com/xob0t/instapost/pkg/imageload"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		if err := runInit(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "render":
		if err := runRender(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)

	var (
		output     string
		designPath string
		fontPath   string
		quality    int
	)

	fs.StringVar(&output, "o", "", "Output file path (.jpg or .png)")
	fs.StringVar(&output, "output", "", "Output file path (.jpg or .png)")
	fs.StringVar(&designPath, "design", "design.json", "Path to design JSON")
	fs.StringVar(&fontPath, "font", "", "TTF/OTF font for the caption (default: embedded Go Bold)")
	fs.IntVar(&quality, "quality", generator.DefaultQuality, "JPEG quality")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" {
		printUsage()
		return fmt.Errorf("output file is required (-o)")
	}

	d, warnings, err := design.LoadFile(designPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logrus.Warn(w)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	photo, err := sourceFor(d.Image.Source)
	if err != nil {
		return err
	}
	mockup, err := sourceFor(d.Mockup)
	if err != nil {
		logrus.WithError(err).Warn("Mockup unavailable, rendering without frame")
	}

	comp, err := compositor.New(fontPath)
	if err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	r := &design.Renderer{
		Loader:     imageload.NewLoader(imageload.DefaultUploadLimit),
		Compositor: comp,
	}

	fmt.Printf("Rendering: %s (%dx%d)\n", output, d.Canvas.Width, d.Canvas.Height)
	img, err := r.Draw(ctx, d, photo, mockup)
	if err != nil {
		return err
	}

	if err := generator.Generate(output, generator.Config{Image: img, Quality: quality}); err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

// sourceFor turns a design image reference into a loader source: URLs and
// data URLs pass through, file paths are read from disk.
func sourceFor(ref string) (imageload.Source, error) {
	if ref == "" || design.IsRemote(ref) {
		return imageload.Source{URL: ref}, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return imageload.Source{}, &imageload.ImageLoadError{Source: ref, Err: err}
	}
	return imageload.Source{Data: data, Name: ref}, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var listen string
	fs.StringVar(&listen, "listen", "", "Listen address (overrides INSTAPOST_LISTEN)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if err := config.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	return server.RunServe(cfg)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var out string
	fs.StringVar(&out, "design", "design.json", "Output path for sample design")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(out, []byte(design.ExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write design: %w", err)
	}

	fmt.Printf("Created: %s\n", out)
	fmt.Printf("Run: instapost render -o post.jpg --design %s\n", out)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`instapost — Instagram post compositor (Pure Go)

USAGE:
    instapost render -o <file> --design <path> [options]
    instapost serve [--listen :8080]
    instapost init [--design design.json]

RENDER:
    -o, --output <path>    Output file (.jpg or .png)
    --design <path>        Design JSON (default: design.json)
    --font <path>          Caption font (default: embedded Go Bold)
    --quality <n>          JPEG quality (default: 90)

SERVER:
    instapost serve        Start the editing API (configured from .env / environment)

EXAMPLES:
    instapost init
    instapost render -o post.jpg --design design.json
    instapost render -o post.png --design design.json --font ./Inter-Bold.ttf
    LOG_FORMAT=json STORAGE_TYPE=filesystem instapost serve
`)
}
