package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"waybackfill/internal/enrich"
	"waybackfill/internal/logging"
)

// newProgress draws a bar on interactive terminals and falls back to sampled
// log lines everywhere else.
func newProgress(w io.Writer, logger *slog.Logger) enrich.Progress {
	if isTerminal(w) {
		return &barProgress{out: w}
	}
	return &logProgress{logger: logger, sampler: logging.NewProgressSampler(10)}
}

type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("resolving"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) Advance() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

type logProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	done    int
}

func (p *logProgress) Start(total int) {
	p.total = total
	p.done = 0
	p.sampler.Reset()
}

func (p *logProgress) Advance() {
	p.done++
	if p.sampler.ShouldLog(p.done, p.total) {
		p.logger.Info("enrichment progress",
			logging.Int("done", p.done),
			logging.Int("total", p.total))
	}
}

func (p *logProgress) Finish() {}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
