// Package progressui wraps the progress bars and styled summary banners
// this tool prints to stderr, keeping cmd/dedupetool free of presentation
// detail.
package progressui

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
)

// NewCountBar returns a progress bar tracking a known count of discrete
// items (files discovered, targets dispatched), written to stderr.
func NewCountBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}

// NewByteBar returns a progress bar tracking bytes processed, written to
// stderr, matching the style the teacher's dedupe command already used.
func NewByteBar(totalBytes int64, description string) *progressbar.ProgressBar {
	bar := progressbar.DefaultBytes(totalBytes, description)
	return bar
}

// PrintSummary prints the final colored banner: green "saved up to N bytes"
// when anyFailed is false, red "completed with errors" when it is true.
func PrintSummary(maxBytesSaved uint64, anyFailed bool) {
	saved := humanize.IBytes(maxBytesSaved)
	if anyFailed {
		fmt.Fprintln(os.Stderr, colorstring.Color(fmt.Sprintf("[red]Completed with errors. Saved up to %s.[reset]", saved)))
		return
	}
	fmt.Fprintln(os.Stderr, colorstring.Color(fmt.Sprintf("[green]Saved up to %s total![reset]", saved)))
}

// PrintTargetError prints a single target's failure, matching the teacher's
// per-destination error line style.
func PrintTargetError(label string, err error) {
	fmt.Fprintln(os.Stderr, colorstring.Color(fmt.Sprintf("[red]%s failed: %v[reset]", label, err)))
}
