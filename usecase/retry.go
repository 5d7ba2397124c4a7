package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
)

// Analyzer produces a report for one recorded call
type Analyzer interface {
	Report(ctx context.Context, audioData []byte, mediaType string) (*entities.AnalysisReport, error)
}

var _ Analyzer = (*AnalysisService)(nil)

// RetryingAnalyzer re-runs whole analyses that failed for reasons a second
// attempt can fix: transport errors, empty answers and malformed answers.
// The analysis core never retries on its own; this wrapper is for callers
// that choose to.
type RetryingAnalyzer struct {
	next     Analyzer
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewRetryingAnalyzer wraps next. attempts counts the first try; values
// below 1 mean a single try. The wait before retry n is n*backoff.
func NewRetryingAnalyzer(next Analyzer, attempts int, backoff time.Duration, logger *zap.Logger) *RetryingAnalyzer {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingAnalyzer{next: next, attempts: attempts, backoff: backoff, logger: logger}
}

// Report implements Analyzer
func (r *RetryingAnalyzer) Report(ctx context.Context, audioData []byte, mediaType string) (*entities.AnalysisReport, error) {
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		var report *entities.AnalysisReport
		report, err = r.next.Report(ctx, audioData, mediaType)
		if err == nil {
			return report, nil
		}
		if !Retryable(err) || attempt == r.attempts-1 {
			break
		}

		wait := time.Duration(attempt+1) * r.backoff
		r.logger.Warn("Analysis failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, domain.WrapError(domain.KindCancelled, ctx.Err(), "analysis cancelled while waiting to retry")
		case <-time.After(wait):
		}
	}
	return nil, err
}

// Retryable reports whether running the same analysis again might succeed
func Retryable(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindInferenceTransport, domain.KindEmptyResponse, domain.KindMalformedResponse:
		return true
	default:
		return false
	}
}
