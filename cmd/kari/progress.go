package main

import (
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"kari/internal/logging"
	"kari/internal/pipeline"
	"kari/internal/timeline"
)

// progressReporter draws a bar on terminals and falls back to sampled log
// lines when output is redirected.
type progressReporter struct {
	out     io.Writer
	tty     bool
	bar     *progressbar.ProgressBar
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &progressReporter{
		out:     out,
		tty:     isTerminal(out),
		sampler: logging.NewProgressSampler(10),
		logger:  logging.NewComponentLogger(logger, "progress"),
	}
}

func (r *progressReporter) update(p pipeline.Progress) {
	if r.tty {
		if r.bar == nil {
			r.bar = progressbar.NewOptions(p.Windows,
				progressbar.OptionSetWriter(r.out),
				progressbar.OptionSetDescription("transcribing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = r.bar.Set(p.Window.Index)
		return
	}

	if !r.sampler.Sample(p.Fraction()) {
		return
	}
	r.logger.Info("transcription progress",
		logging.String(logging.FieldEventType, "transcription_progress"),
		logging.Int(logging.FieldChunkIndex, p.Window.Index),
		logging.Int("windows", p.Windows),
		logging.String("position", timeline.FormatTimestamp(p.DoneMs)),
		logging.Float64("percent", p.Fraction()*100),
		logging.Int("segments", p.Segments),
		logging.Bool("skipped", p.Skipped),
	)
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	r.sampler.Reset()
}
