package langfeatures

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/reglet-langfeatures/location"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/selector"
)

// ScoreMiddleware wraps a score function to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	countingMiddleware := func(next registry.ScoreFunc) registry.ScoreFunc {
//	    return func(sel selector.Selector, doc selector.Document) int {
//	        calls.Add(1)
//	        return next(sel, doc)
//	    }
//	}
type ScoreMiddleware func(next registry.ScoreFunc) registry.ScoreFunc

func chainScoreMiddleware(score registry.ScoreFunc, mws []ScoreMiddleware) registry.ScoreFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		score = mws[i](score)
	}
	return score
}

// RecoverScoreMiddleware returns a middleware that turns a panicking score or
// refine function into a non-match for that registration instead of crashing
// the query.
func RecoverScoreMiddleware(logger *slog.Logger) ScoreMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next registry.ScoreFunc) registry.ScoreFunc {
		return func(sel selector.Selector, doc selector.Document) (score int) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("score function panicked",
						"selector", sel.String(),
						"location", location.StripCredentials(doc.Location),
						"panic", r)
					score = 0
				}
			}()
			return next(sel, doc)
		}
	}
}

// LoggingScoreMiddleware returns a middleware that logs every score at debug level.
func LoggingScoreMiddleware(logger *slog.Logger) ScoreMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next registry.ScoreFunc) registry.ScoreFunc {
		return func(sel selector.Selector, doc selector.Document) int {
			score := next(sel, doc)
			if logger.Enabled(context.Background(), slog.LevelDebug) {
				logger.Debug("scored provider",
					"selector", sel.String(),
					"location", location.StripCredentials(doc.Location),
					"content_type", doc.ContentType,
					"score", score)
			}
			return score
		}
	}
}
