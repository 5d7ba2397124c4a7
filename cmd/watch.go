package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/callqa/internal/watch"
	"github.com/satriahrh/callqa/usecase"
)

func newWatchCommand() *cobra.Command {
	var (
		opts     analyzeOptions
		settle   time.Duration
		backfill bool
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Analyze recordings as they are dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, logger, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()

			sink, err := newReportSink(opts.outDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			return runWatch(cmd.Context(), analyzer, args[0], settle, backfill, opts, sink, logger)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().DurationVar(&settle, "settle", 2*time.Second, "quiet period before a new file is analyzed")
	cmd.Flags().BoolVar(&backfill, "backfill", true, "also analyze recordings already in DIR that have no report yet")
	return cmd
}

func runWatch(ctx context.Context, analyzer usecase.Analyzer, dir string, settle time.Duration, backfill bool, opts analyzeOptions, sink *reportSink, logger *zap.Logger) error {
	queue := newFileQueue()

	// the watcher only enqueues, so a full worker pool never stalls its event loop
	handle := func(_ context.Context, path string) {
		if out := sink.Path(path); out != "" {
			if _, err := os.Stat(out); err == nil {
				logger.Debug("Report exists, skipping", zap.String("file", path))
				return
			}
		}
		queue.Push(path)
	}

	g := errgroup.Group{}
	for i := 0; i < max(opts.concurrency, 1); i++ {
		g.Go(func() error {
			for {
				path, ok := queue.Pop(ctx)
				if !ok {
					return nil
				}
				// started analyses run to completion after shutdown is requested
				if err := analyzeFile(context.WithoutCancel(ctx), analyzer, path, opts.timeout, sink); err != nil {
					logger.Error("Analysis failed", zap.String("file", path), zap.Error(err))
					continue
				}
				logger.Info("Report written", zap.String("file", path), zap.String("report", sink.Path(path)))
			}
		})
	}

	w := watch.New(dir, settle, handle, logger)
	err := func() error {
		if backfill {
			if err := w.Backfill(ctx); err != nil {
				return err
			}
		}
		return w.Run(ctx)
	}()
	queue.Close()
	_ = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// fileQueue is an unbounded FIFO of paths. Push never blocks; a path that
// is already waiting is not queued twice.
type fileQueue struct {
	mu     sync.Mutex
	paths  []string
	queued map[string]bool
	closed bool
	ready  chan struct{}
}

func newFileQueue() *fileQueue {
	return &fileQueue{queued: make(map[string]bool), ready: make(chan struct{}, 1)}
}

func (q *fileQueue) Push(path string) {
	q.mu.Lock()
	if q.closed || q.queued[path] {
		q.mu.Unlock()
		return
	}
	q.queued[path] = true
	q.paths = append(q.paths, path)
	q.mu.Unlock()
	q.wake()
}

// Pop waits for the next path. It returns false once ctx is done or the
// queue is closed, even if paths are still waiting.
func (q *fileQueue) Pop(ctx context.Context) (string, bool) {
	for {
		if ctx.Err() != nil {
			return "", false
		}

		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return "", false
		}
		if len(q.paths) > 0 {
			path := q.paths[0]
			q.paths = q.paths[1:]
			delete(q.queued, path)
			more := len(q.paths) > 0
			q.mu.Unlock()
			if more {
				q.wake()
			}
			return path, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-q.ready:
		}
	}
}

// Close releases every waiting Pop
func (q *fileQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	close(q.ready)
}

func (q *fileQueue) wake() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
