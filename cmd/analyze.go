package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/callqa/internal/audio"
	"github.com/satriahrh/callqa/internal/config"
	"github.com/satriahrh/callqa/internal/metrics"
	"github.com/satriahrh/callqa/usecase"
)

type analyzeOptions struct {
	concurrency int
	retries     int
	backoff     time.Duration
	timeout     time.Duration
	mock        bool
	outDir      string
}

func (o *analyzeOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "c", 2, "files analyzed in parallel")
	cmd.Flags().IntVar(&o.retries, "retries", 1, "extra attempts after a transport, empty or malformed response")
	cmd.Flags().DurationVar(&o.backoff, "backoff", 2*time.Second, "base wait between attempts")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "per-file deadline (default ANALYSIS_TIMEOUT_SECONDS)")
	cmd.Flags().BoolVar(&o.mock, "mock", false, "use the canned mock model instead of Gemini")
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "write FILE.json reports into this directory instead of stdout")
}

// setup loads config and builds the retrying analyzer shared by analyze and watch
func (o *analyzeOptions) setup(ctx context.Context) (usecase.Analyzer, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.mock {
		cfg.Provider = config.ProviderMock
	}
	if o.timeout <= 0 {
		o.timeout = cfg.AnalysisTimeout
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	svc, err := newAnalysisService(ctx, cfg, logger, metrics.New())
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewRetryingAnalyzer(svc, o.retries+1, o.backoff, logger), logger, nil
}

func newAnalyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze recorded calls and print one JSON report per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			analyzer, logger, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()

			sink, err := newReportSink(opts.outDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), analyzer, files, opts, sink, logger)
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func runAnalyze(ctx context.Context, analyzer usecase.Analyzer, files []string, opts analyzeOptions, sink *reportSink, logger *zap.Logger) error {
	var (
		mu       sync.Mutex
		failures []error
	)

	g := errgroup.Group{}
	g.SetLimit(max(opts.concurrency, 1))
	for _, path := range files {
		g.Go(func() error {
			if err := analyzeFile(ctx, analyzer, path, opts.timeout, sink); err != nil {
				logger.Error("Analysis failed", zap.String("file", path), zap.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failures...)
}

func analyzeFile(ctx context.Context, analyzer usecase.Analyzer, path string, timeout time.Duration, sink *reportSink) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := analyzer.Report(ctx, data, audio.DetectMediaType(path, data))
	if err != nil {
		return err
	}
	return sink.Write(path, report)
}

// reportSink writes reports either as DIR/NAME.json files or, when no
// directory is set, as indented JSON documents on one stream
type reportSink struct {
	dir    string
	mu     sync.Mutex
	stream io.Writer
}

func newReportSink(dir string, stream io.Writer) (*reportSink, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &reportSink{dir: dir, stream: stream}, nil
}

// Path returns where the report for source lands, or "" for the stream
func (s *reportSink) Path(source string) string {
	if s.dir == "" {
		return ""
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".json"
	return filepath.Join(s.dir, name)
}

func (s *reportSink) Write(source string, report any) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if path := s.Path(source); path != "" {
		return os.WriteFile(path, out, 0o644)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.stream.Write(out)
	return err
}
