package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"

	"picpath/internal/picpath"
)

// printImages writes one line per image. limit <= 0 prints everything.
func printImages(w io.Writer, images []picpath.ImageRecord, limit int) {
	shown := images
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, img := range shown {
		fmt.Fprintf(w, "%-20d  %-11s  %9s  %s  %s\n",
			img.ID,
			img.Category,
			units.HumanSize(float64(img.SizeBytes)),
			time.Unix(img.DateAdded, 0).Format("2006-01-02 15:04"),
			img.DisplayName,
		)
	}
	if len(shown) < len(images) {
		fmt.Fprintf(w, "... and %d more\n", len(images)-len(shown))
	}
}

// osc52 returns the terminal escape sequence that puts text on the clipboard.
func osc52(text string) string {
	return "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
}
