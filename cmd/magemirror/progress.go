package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressPrinter renders one download bar at a time on stderr. Downloads run
// sequentially, so a file name change means the previous file is done.
type progressPrinter struct {
	fileName string
	bar      *progressbar.ProgressBar
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{}
}

// update is wired as the client's progress callback.
func (p *progressPrinter) update(fileName string, fetched, total int64) {
	if p.bar == nil || fileName != p.fileName {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.fileName = fileName
		p.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetDescription(fileName),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
		)
	}

	_ = p.bar.Set64(fetched)
}
