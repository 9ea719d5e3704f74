package engine

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Progress is told about resource downloads as they happen.
type Progress interface {
	Start(total int)
	Done(url string, err error)
	Stop()
}

type nopProgress struct{}

func (nopProgress) Start(int)          {}
func (nopProgress) Done(string, error) {}
func (nopProgress) Stop()              {}

// BarProgress renders a progress bar of the resource downloads to a terminal.
type BarProgress struct {
	pw      progress.Writer
	tracker *progress.Tracker
	failed  atomic.Int32
}

func NewBarProgress(w io.Writer) *BarProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Speed = false
	return &BarProgress{pw: pw}
}

func (b *BarProgress) Start(total int) {
	if total == 0 {
		return
	}
	b.tracker = &progress.Tracker{
		Message: "Downloading resources",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	b.pw.AppendTracker(b.tracker)
	go b.pw.Render()
}

func (b *BarProgress) Done(_ string, err error) {
	if b.tracker == nil {
		return
	}
	if err != nil {
		b.failed.Add(1)
	}
	b.tracker.Increment(1)
}

func (b *BarProgress) Stop() {
	if b.tracker == nil {
		return
	}
	if b.failed.Load() > 0 {
		b.tracker.MarkAsErrored()
	} else {
		b.tracker.MarkAsDone()
	}
	// let the last frame reach the terminal
	time.Sleep(150 * time.Millisecond)
	b.pw.Stop()
	for b.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
