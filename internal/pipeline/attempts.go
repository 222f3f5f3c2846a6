package pipeline

import (
	"time"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/confidence"
	"github.com/ironsheep/ine-ocr-mcp/internal/parse"
)

// AttemptFunc runs one back-side attempt and returns its result together
// with the id_ine confidence used to rank attempts.
type AttemptFunc func(attempt int) (parse.BackResult, float64)

// Budget bounds the retry loop.
type Budget struct {
	MaxAttempts int
	Limit       time.Duration
	Start       time.Time
	Now         func() time.Time
}

// Outcome is the folded result of RunAttempts.
type Outcome struct {
	Best           parse.BackResult
	BestConfidence float64
	// Attempts is the number of the last attempt that ran, 0 if none did.
	Attempts       int
	Warnings       []string
	BudgetExceeded bool
}

// RunAttempts runs attempts 1..MaxAttempts in order. Elapsed time is checked
// before each attempt; once it exceeds the limit, time_budget_exceeded is
// recorded and no further attempt starts. An attempt replaces the best so
// far when its confidence is strictly higher, or when it is the first to
// run. The loop stops early at the review threshold. Warnings from every
// attempt are merged in order, each code once.
func RunAttempts(b Budget, run AttemptFunc) Outcome {
	var (
		out   Outcome
		warns card.Warnings
		have  bool
	)
	for n := 1; n <= b.MaxAttempts; n++ {
		if b.Now().Sub(b.Start) > b.Limit {
			warns.Add(card.WarnTimeBudgetExceeded)
			out.BudgetExceeded = true
			break
		}

		res, conf := run(n)
		out.Attempts = n
		warns.Add(res.Warnings...)

		if !have || conf > out.BestConfidence {
			out.Best, out.BestConfidence, have = res, conf, true
		}
		if conf >= confidence.ReviewThreshold {
			break
		}
	}
	out.Warnings = warns.List()
	return out
}
