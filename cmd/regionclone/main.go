// Command regionclone copies one Anvil region file to a new region-grid
// position, rewriting the absolute coordinates inside every chunk. The
// source may be a local path or any go-getter URL (http, git, s3, ...),
// in which case it is downloaded to a temporary file first.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	get "github.com/hashicorp/go-getter"
	"github.com/schollz/progressbar/v3"

	"github.com/TheTechdoodle/region-api/pkg/anvil"
)

func main() {
	var (
		src      = flag.String("src", "", "source region file (path or go-getter URL)")
		dst      = flag.String("dst", "", "destination region file path")
		fromRX   = flag.Int("from-rx", 0, "source region X coordinate")
		fromRZ   = flag.Int("from-rz", 0, "source region Z coordinate")
		toRX     = flag.Int("to-rx", 0, "destination region X coordinate")
		toRZ     = flag.Int("to-rz", 0, "destination region Z coordinate")
		progress = flag.Bool("progress", true, "show a progress bar")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *src == "" || *dst == "" {
		fmt.Fprintln(os.Stderr, "usage: regionclone -src <file|url> -dst <file> -from-rx N -from-rz N -to-rx N -to-rz N")
		flag.PrintDefaults()
		os.Exit(2)
	}

	srcPath := *src
	if isRemote(srcPath) {
		tmp, err := os.MkdirTemp("", "regionclone")
		if err != nil {
			log.Error("create temp dir", "error", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)

		fetched := filepath.Join(tmp, fmt.Sprintf("r.%d.%d.mca", *fromRX, *fromRZ))
		log.Info("downloading source region", "url", srcPath)
		if err := get.GetFile(fetched, srcPath); err != nil {
			log.Error("download source region", "url", srcPath, "error", err)
			os.Exit(1)
		}
		srcPath = fetched
	}

	opts := &anvil.CloneOptions{Log: log}
	if *progress {
		bar := progressbar.Default(32*32, "cloning chunks")
		opts.Progress = func(x, z int, present bool) {
			bar.Add(1)
		}
	}

	if err := anvil.CloneFile(srcPath, *dst, *fromRX, *fromRZ, *toRX, *toRZ, opts); err != nil {
		log.Error("clone region", "error", err)
		os.Exit(1)
	}
}

// isRemote reports whether src is a go-getter URL rather than a local path.
func isRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}
