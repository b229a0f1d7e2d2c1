package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/geo-optimizer/geo/internal/pkg/extractor"
	"github.com/geo-optimizer/geo/internal/pkg/llmstxt"
	"github.com/geo-optimizer/geo/internal/pkg/robots"
	"github.com/geo-optimizer/geo/internal/pkg/schema"
	"github.com/geo-optimizer/geo/internal/pkg/scoring"
	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

// Returned when the homepage cannot be reached at all.
var ErrUnreachable = errors.New("site unreachable")

// Anything that can GET a URL; *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) types.FetchOutcome
}

type Options struct {
	// Bot catalog to classify; DefaultCatalog when empty.
	Catalog robots.Catalog
	// Skips the public-address check, for audits of local test servers.
	AllowPrivate bool
}

type Auditor struct {
	fetcher  Fetcher
	catalog  robots.Catalog
	validate func(ctx context.Context, rawURL string) error
}

func New(f Fetcher, opts Options) *Auditor {
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = robots.DefaultCatalog
	}
	validate := utils.ValidatePublicURL
	if opts.AllowPrivate {
		validate = func(context.Context, string) error { return nil }
	}
	return &Auditor{fetcher: f, catalog: catalog, validate: validate}
}

// Audits one site. The URL is normalized and validated before any request;
// homepage, robots.txt and llms.txt are then fetched concurrently and scored.
// An unreachable homepage aborts with ErrUnreachable, a cancelled context
// with ctx.Err(); every other failure is reported inside the result.
func (a *Auditor) Run(ctx context.Context, rawURL string) (types.AuditResult, error) {
	baseURL, err := utils.NormalizeBaseURL(rawURL)
	if err != nil {
		return types.AuditResult{}, err
	}
	if err := a.validate(ctx, baseURL); err != nil {
		return types.AuditResult{}, err
	}
	robotsURL, err := utils.ResolvePath(baseURL, "/robots.txt")
	if err != nil {
		return types.AuditResult{}, err
	}
	llmsURL, err := utils.ResolvePath(baseURL, "/llms.txt")
	if err != nil {
		return types.AuditResult{}, err
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "url", baseURL)
	logger.Info("Audit: started")
	start := time.Now()

	var homepage, robotsOutcome, llmsOutcome types.FetchOutcome
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		homepage = a.fetcher.Fetch(groupCtx, baseURL)
		return nil
	})
	group.Go(func() error {
		robotsOutcome = a.fetcher.Fetch(groupCtx, robotsURL)
		return nil
	})
	group.Go(func() error {
		llmsOutcome = a.fetcher.Fetch(groupCtx, llmsURL)
		return nil
	})
	if err := group.Wait(); err != nil {
		return types.AuditResult{}, err
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("Audit: canceled", "error", err)
		return types.AuditResult{}, err
	}

	switch homepage.ErrorKind {
	case types.ErrorTimeout, types.ErrorConnectionFailed:
		logger.Error("Audit: homepage unreachable", "reason", homepage.Reason())
		return types.AuditResult{}, fmt.Errorf("%w: %s: %s", ErrUnreachable, baseURL, homepage.Reason())
	case types.ErrorCanceled:
		return types.AuditResult{}, context.Canceled
	}
	if !homepage.OK() {
		logger.Warn("Audit: homepage not readable, page checks unverified", "reason", homepage.Reason())
	}

	robotsCheck := robots.Analyze(robotsOutcome, a.catalog)
	llmsCheck := llmstxt.Analyze(llmsOutcome)
	schemaCheck, metaCheck, contentCheck := a.analyzeHomepage(homepage, baseURL, logger)

	result := scoring.Score(baseURL, robotsCheck, llmsCheck, schemaCheck, metaCheck, contentCheck)
	result.HTTPStatus = homepage.StatusCode
	result.PageSize = len(homepage.Body)
	result.RunID = runID

	logger.Info("Audit: completed", "score", result.Score, "band", result.Band, "elapsed", time.Since(start))
	return result, nil
}

// Runs the three checks that read the homepage HTML.
func (a *Auditor) analyzeHomepage(homepage types.FetchOutcome, baseURL string, logger *slog.Logger) (types.CheckResult, types.CheckResult, types.CheckResult) {
	var extraction schema.Extraction
	var meta types.MetaTagSignals
	var content types.ContentSignals

	if homepage.OK() {
		extraction = schema.Extract(homepage.Body)

		siteURL := baseURL
		if homepage.FinalURL != "" {
			siteURL = homepage.FinalURL
		}
		var err error
		meta, content, err = extractor.Analyze(homepage.Body, siteURL)
		if err != nil {
			logger.Warn("Audit: homepage HTML not analyzable", "error", err)
		}
	}

	return schema.Analyze(extraction, homepage),
		extractor.AnalyzeMeta(meta, homepage),
		extractor.AnalyzeContent(content, homepage)
}
