package extractor

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

var okHomepage = types.FetchOutcome{URL: "https://example.com", StatusCode: http.StatusOK, ErrorKind: types.ErrorNone}

const richPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>  Example   Finance </title>
  <META NAME="Description" content="Calculators for everyday money questions.">
  <link rel="alternate canonical" href="https://example.com/">
  <meta property="og:title" content="Example">
  <meta property="og:description" content="Calculators">
  <meta property="og:image" content="https://example.com/og.png">
  <script>var tracking = 12345;</script>
</head>
<body>
  <h1>Mortgage <em>calculator</em></h1>
  <h2>Why</h2><h3>How</h3>
  <p>Over 2,500 customers saved 35% in 2024, paying $1,200 less, rated 4.8 stars.</p>
  <style>.x { width: 100px; }</style>
  <noscript>Enable 999 scripts</noscript>
  <a href="https://www.example.com/about">About</a>
  <a href="/pricing">Pricing</a>
  <a href="https://data.gov/report">Report</a>
  <a href="http://stats.example.org/table">Table</a>
  <a href="//cdn.partner.net/x">CDN</a>
  <a href="mailto:hi@example.com">Mail</a>
  <a href="https://data.gov/report">Report again</a>
</body>
</html>`

func TestExtractMeta(t *testing.T) {
	meta, err := ExtractMeta(richPage)
	require.NoError(t, err)
	assert.True(t, meta.HasTitle)
	assert.Equal(t, "Example Finance", meta.Title)
	assert.True(t, meta.HasDescription)
	assert.Equal(t, "Calculators for everyday money questions.", meta.Description)
	assert.True(t, meta.HasCanonical)
	assert.Equal(t, "https://example.com/", meta.CanonicalURL)
	assert.True(t, meta.HasOGTitle)
	assert.True(t, meta.HasOGDescription)
	assert.True(t, meta.HasOGImage)
}

func TestExtractMetaIgnoresEmptyTags(t *testing.T) {
	meta, err := ExtractMeta(`<html><head><title> </title><meta name="description" content=""><link rel="canonical" href=""></head></html>`)
	require.NoError(t, err)
	assert.False(t, meta.HasTitle)
	assert.False(t, meta.HasDescription)
	assert.False(t, meta.HasCanonical)
}

func TestExtractContent(t *testing.T) {
	content, err := ExtractContent(richPage, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, content.HeadingCount)
	assert.True(t, content.HasH1)
	assert.Equal(t, "Mortgage calculator", content.H1Text)
	assert.Equal(t, 5, content.StatisticCount)
	assert.Equal(t, 4, content.ExternalCitationCount)
	assert.Equal(t, []string{
		"https://data.gov/report",
		"http://stats.example.org/table",
		"https://cdn.partner.net/x",
		"https://data.gov/report",
	}, content.ExternalLinks)
	assert.NotContains(t, content.ExternalLinks, "https://www.example.com/about")
}

func TestExtractContentSkipsHiddenText(t *testing.T) {
	content, err := ExtractContent(`<html><head><title>2024 title</title></head><body><script>1 2 3 4 5</script><template><p>6 7</p></template><p>one two</p></body></html>`, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, content.StatisticCount)
	assert.Equal(t, 2, content.WordCount)
}

func TestExtractContentHonoursBaseHref(t *testing.T) {
	body := `<html><head><base href="https://mirror.example.net/docs/"></head><body><a href="guide">Guide</a><a href="https://example.com/x">Home</a></body></html>`
	content, err := ExtractContent(body, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://mirror.example.net/docs/guide"}, content.ExternalLinks)
}

func TestStatisticPattern(t *testing.T) {
	tests := map[string]int{
		"no numbers here":             0,
		"in 1999 and 2024":            2,
		"grew 12.5% to €3.4 billion":  2,
		"£ 20 or ¥500":                2,
		"1,000,000 users":             1,
		"version2 beta":               0,
		"3 cats, 4 dogs and 10% mice": 3,
	}
	for text, want := range tests {
		assert.Equal(t, want, len(statisticPattern.FindAllString(text, -1)), text)
	}
}

func TestExtractContentRejectsBadSiteURL(t *testing.T) {
	_, err := ExtractContent("<html></html>", "::not a url")
	assert.ErrorIs(t, err, utils.ErrInvalidURL)
}

func TestAnalyzeMetaScoring(t *testing.T) {
	meta, content, err := Analyze(richPage, "https://example.com")
	require.NoError(t, err)
	result := AnalyzeMeta(meta, okHomepage)
	assert.Equal(t, MetaMaxScore, result.Score)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Warnings)

	contentResult := AnalyzeContent(content, okHomepage)
	assert.Equal(t, ContentMaxScore, contentResult.Score)
	assert.True(t, contentResult.Passed)
}

func TestAnalyzeMetaPartial(t *testing.T) {
	tests := []struct {
		name   string
		meta   types.MetaTagSignals
		score  int
		passed bool
	}{
		{"nothing", types.MetaTagSignals{}, 0, false},
		{"title only", types.MetaTagSignals{HasTitle: true}, 5, false},
		{"title and description", types.MetaTagSignals{HasTitle: true, HasDescription: true}, 10, true},
		{"og title alone", types.MetaTagSignals{HasTitle: true, HasDescription: true, HasOGTitle: true}, 10, true},
		{"og bundle", types.MetaTagSignals{HasOGTitle: true, HasOGDescription: true}, 5, false},
		{"canonical", types.MetaTagSignals{HasCanonical: true}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeMeta(tt.meta, okHomepage)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.passed, result.Passed)
		})
	}
	assert.Len(t, AnalyzeMeta(types.MetaTagSignals{HasOGTitle: true}, okHomepage).Warnings, 1)
}

func TestAnalyzeContentThresholds(t *testing.T) {
	tests := []struct {
		name    string
		content types.ContentSignals
		score   int
		passed  bool
	}{
		{"empty", types.ContentSignals{}, 0, false},
		{"h1", types.ContentSignals{HasH1: true}, 4, true},
		{"four statistics", types.ContentSignals{StatisticCount: 4}, 0, false},
		{"five statistics", types.ContentSignals{StatisticCount: 5}, 6, false},
		{"two citations", types.ContentSignals{ExternalCitationCount: 2}, 0, false},
		{"three citations", types.ContentSignals{ExternalCitationCount: 3}, 5, false},
		{"all", types.ContentSignals{HasH1: true, StatisticCount: 9, ExternalCitationCount: 7}, 15, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeContent(tt.content, okHomepage)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.passed, result.Passed)
		})
	}
}

func TestUnverifiedHomepage(t *testing.T) {
	homepage := types.FetchOutcome{URL: "https://example.com", StatusCode: http.StatusInternalServerError, ErrorKind: types.ErrorNone}
	meta := AnalyzeMeta(types.MetaTagSignals{HasTitle: true, HasDescription: true}, homepage)
	assert.Equal(t, 0, meta.Score)
	assert.True(t, meta.Unverified())
	assert.False(t, meta.Passed)

	content := AnalyzeContent(types.ContentSignals{HasH1: true}, homepage)
	assert.Equal(t, 0, content.Score)
	assert.True(t, content.Unverified())
}
