package main

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/dailymed/internal/acquire"
)

// stderr is where logs and progress bars are written.
var stderr = os.Stderr

// newProgressBar renders one bar per drug batch on stderr.
func newProgressBar(total int, label string) acquire.Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
