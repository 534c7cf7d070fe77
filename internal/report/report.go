package report

import (
	"log"

	"github.com/chris/moodlog/internal/metrics"
)

// Reporter receives errors from background passes. Implementations must not
// block or panic.
type Reporter interface {
	Report(context string, err error)
}

// Log writes reports to the standard logger and counts them.
type Log struct{}

func (Log) Report(context string, err error) {
	if err == nil {
		return
	}
	metrics.Errors.WithLabelValues(context).Inc()
	log.Printf("%s: %v", context, err)
}

// Func adapts a plain function to Reporter.
type Func func(context string, err error)

func (f Func) Report(context string, err error) { f(context, err) }
