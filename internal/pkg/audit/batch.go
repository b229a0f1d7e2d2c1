package audit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/pool"
	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const DefaultBatchWorkers = 4

// One site of a batch run. Err is set when the audit could not produce a result.
type BatchItem struct {
	URL    string
	Result types.AuditResult
	Err    error
}

// Reads one URL per line, skipping blank lines and # comments.
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error while reading url list: %w", err)
	}
	return urls, nil
}

// Audits every URL with at most `workers` audits in flight. Items come back
// in input order; a cancelled context leaves unstarted items with ctx.Err().
func (a *Auditor) RunBatch(ctx context.Context, urls []string, workers int) ([]BatchItem, error) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	workerPool, err := pool.NewWorkerPool(min(workers, max(len(urls), 1)))
	if err != nil {
		return nil, err
	}
	defer workerPool.Shutdown()

	items := make([]BatchItem, len(urls))
	for i, u := range urls {
		items[i] = BatchItem{URL: u}
	}

	started := make([]bool, len(urls))
	runErr := workerPool.RunAll(ctx, len(urls), func(ctx context.Context, i int) {
		started[i] = true
		defer func() {
			if r := recover(); r != nil {
				items[i].Err = fmt.Errorf("audit of %s panicked: %v", urls[i], r)
				slog.Error("Audit: batch item panicked", "url", urls[i], "panic", r)
			}
		}()
		result, err := a.Run(ctx, urls[i])
		items[i].Result = result
		items[i].Err = err
		if err != nil {
			slog.Warn("Audit: batch item failed", "url", urls[i], "error", err)
		}
	})
	if runErr != nil {
		for i := range items {
			if !started[i] {
				items[i].Err = ctx.Err()
			}
		}
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	slog.Info("Audit: batch completed", "sites", len(urls), "failed", failed)
	return items, nil
}
