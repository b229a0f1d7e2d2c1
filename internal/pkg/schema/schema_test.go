package schema

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

var okHomepage = types.FetchOutcome{URL: "https://example.com", StatusCode: http.StatusOK, ErrorKind: types.ErrorNone}

func page(scripts ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Example</title>")
	for _, s := range scripts {
		b.WriteString(s)
	}
	b.WriteString("</head><body><p>hi</p></body></html>")
	return b.String()
}

func ldScript(body string) string {
	return `<script type="application/ld+json">` + body + `</script>`
}

const (
	websiteJSON = `{"@context": "https://schema.org", "@type": "WebSite", "name": "Example", "url": "https://example.com"}`
	faqJSON     = `{"@context": "https://schema.org", "@type": "FAQPage", "mainEntity": []}`
	webAppJSON  = `{"@context": "https://schema.org", "@type": "WebApplication", "name": "Calc", "url": "https://example.com/calc"}`
)

func TestAnalyzeFullSchema(t *testing.T) {
	extraction := Extract(page(ldScript(websiteJSON), ldScript(faqJSON), ldScript(webAppJSON)))
	result := Analyze(extraction, okHomepage)
	assert.Equal(t, MaxScore, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, types.StatusOK, result.Status)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"FAQPage", "WebApplication", "WebSite"}, result.Details["found_types"])
}

func TestTypeArrayRegistersEveryType(t *testing.T) {
	extraction := Extract(page(ldScript(`{"@context": "https://schema.org", "@type": ["WebSite", "Organization"], "name": "X", "url": "https://x.example"}`)))
	assert.True(t, extraction.Has("WebSite"))
	assert.True(t, extraction.Has("Organization"))

	result := Analyze(extraction, okHomepage)
	assert.Equal(t, websitePoints, result.Score)
	assert.False(t, result.Passed)
}

func TestMalformedJSONDoesNotHideSiblings(t *testing.T) {
	extraction := Extract(page(ldScript(`{"@type": "FAQPage",`), ldScript(websiteJSON)))
	require.Len(t, extraction.Blocks, 2)
	assert.False(t, extraction.Blocks[0].IsValidJSON)
	assert.Equal(t, 1, extraction.InvalidCount())
	assert.Len(t, extraction.Warnings, 1)
	assert.Contains(t, extraction.Warnings[0], "not valid JSON")

	result := Analyze(extraction, okHomepage)
	assert.Equal(t, websitePoints, result.Score)
	assert.False(t, extraction.Has("FAQPage"))
}

func TestScriptTypeIsCaseInsensitive(t *testing.T) {
	extraction := Extract(page(`<script type=" Application/LD+JSON ">` + websiteJSON + `</script>`, `<script type="text/javascript">var x = 1;</script>`))
	require.Len(t, extraction.Blocks, 1)
	assert.True(t, extraction.Has("WebSite"))
}

func TestTopLevelArrayAndGraph(t *testing.T) {
	array := "[" + websiteJSON + "," + faqJSON + "]"
	graph := `{"@context": "https://schema.org", "@graph": [{"@type": "WebApplication", "name": "Calc", "url": "https://example.com/calc"}, "junk"]}`

	extraction := Extract(page(ldScript(array), ldScript(graph)))
	assert.Len(t, extraction.Blocks, 3)
	assert.True(t, extraction.Has("WebSite"))
	assert.True(t, extraction.Has("FAQPage"))
	assert.True(t, extraction.Has("WebApplication"))
	assert.Equal(t, "https://schema.org", extraction.Blocks[2].Data["@context"])
	assert.Len(t, extraction.Warnings, 1)
}

func TestDuplicateBlocksCountedOnce(t *testing.T) {
	reordered := `{"@context": "https://schema.org", "@type": ["Organization", "WebSite"], "name": "Example", "url": "https://example.com"}`
	same := `{"@context": "https://schema.org", "@type": ["WebSite", "Organization"], "name": "Example", "url": "https://example.com"}`

	extraction := Extract(page(ldScript(same), ldScript(reordered), ldScript(websiteJSON)))
	assert.Len(t, extraction.Blocks, 2)
	assert.Equal(t, 1, extraction.Duplicates)

	result := Analyze(extraction, okHomepage)
	assert.Equal(t, websitePoints, result.Score)
	assert.Equal(t, 1, result.Details["duplicate_count"])
}

func TestInvalidBlocksAreWarned(t *testing.T) {
	extraction := Extract(page(ldScript(`{"@context": "https://example.org", "@type": "WebSite"}`)))
	assert.True(t, extraction.Has("WebSite"))
	require.Len(t, extraction.Warnings, 1)
	assert.Contains(t, extraction.Warnings[0], "@context")
}

func TestAnalyzeNoSchema(t *testing.T) {
	result := Analyze(Extract(page()), okHomepage)
	assert.Equal(t, 0, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, types.StatusAbsent, result.Status)
}

func TestAnalyzeUnverifiedHomepage(t *testing.T) {
	homepage := types.FetchOutcome{URL: "https://example.com", StatusCode: http.StatusForbidden, ErrorKind: types.ErrorNone}
	result := Analyze(Extract(page(ldScript(websiteJSON))), homepage)
	assert.Equal(t, 0, result.Score)
	assert.True(t, result.Unverified())
	assert.Contains(t, result.Message, "HTTP 403")
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var block map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &block))
	return block
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		strict   bool
		wantErr  string
	}{
		{"valid website", websiteJSON, "website", false, ""},
		{"http context", `{"@context": "http://schema.org", "@type": "Person", "name": "A"}`, "person", false, ""},
		{"context list", `{"@context": ["https://schema.org", {"x": "y"}], "@type": "Thing"}`, "", false, ""},
		{"missing context", `{"@type": "WebSite"}`, "", false, "@context"},
		{"wrong context", `{"@context": "https://example.org", "@type": "WebSite"}`, "", false, "@context"},
		{"object context", `{"@context": {"a": 1}, "@type": "WebSite"}`, "", false, "string or array"},
		{"missing type", `{"@context": "https://schema.org"}`, "", false, "@type"},
		{"empty type list", `{"@context": "https://schema.org", "@type": []}`, "", false, "empty"},
		{"type mismatch", websiteJSON, "faqpage", false, "expected @type"},
		{"missing fields", `{"@context": "https://schema.org", "@type": "Article", "headline": "H"}`, "article", false, "author"},
		{"relative url allowed when lax", `{"@context": "https://schema.org", "@type": "Thing", "url": "example.com"}`, "", false, ""},
		{"relative url rejected when strict", `{"@context": "https://schema.org", "@type": "Thing", "sameAs": ["https://a.example", "b.example"]}`, "", true, "sameAs"},
		{"rooted url strict", `{"@context": "https://schema.org", "@type": "Thing", "logo": "/logo.png"}`, "", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(decode(t, tt.raw), tt.expected, tt.strict)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON(faqJSON, "FAQPage", false))
	assert.ErrorIs(t, ValidateJSON("{not json", "", false), ErrInvalidSchema)
	assert.Equal(t, []string{"@context", "@type"}, RequiredFields("Recipe"))
}

func TestFromTemplate(t *testing.T) {
	block, err := FromTemplate("website", map[string]string{"name": "Example", "url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Example", block["name"])
	assert.Equal(t, "", block["description"])
	action := block["potentialAction"].(map[string]any)
	target := action["target"].(map[string]any)
	assert.Equal(t, "https://example.com/search?q={search_term_string}", target["urlTemplate"])
	assert.NoError(t, Validate(block, "website", true))

	again, err := FromTemplate("website", nil)
	require.NoError(t, err)
	assert.Equal(t, "", again["name"])

	for _, name := range TemplateNames() {
		block, err := FromTemplate(name, map[string]string{"name": "N", "url": "https://n.example", "title": "T", "author": "A"})
		require.NoError(t, err, name)
		schemaType, ok := TemplateType(name)
		require.True(t, ok)
		assert.NoError(t, Validate(block, schemaType, false), name)
	}

	_, err = FromTemplate("recipe", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestFAQ(t *testing.T) {
	block := FAQ([]FAQItem{{Question: "Is it free?", Answer: "Yes."}, {Question: " ", Answer: "dropped"}})
	assert.NoError(t, Validate(block, "faqpage", false))
	entities := block["mainEntity"].([]any)
	require.Len(t, entities, 1)
	question := entities[0].(map[string]any)
	assert.Equal(t, "Is it free?", question["name"])
}

func TestParseFAQ(t *testing.T) {
	items, err := ParseFAQ([]byte(`[{"question": "Q1", "answer": "A1"}, {"q": "Q2", "a": "A2"}]`))
	require.NoError(t, err)
	assert.Equal(t, []FAQItem{{"Q1", "A1"}, {"Q2", "A2"}}, items)

	items, err = ParseFAQ([]byte(`{"faqs": [{"question": "Q", "answer": "A"}]}`))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = ParseFAQ([]byte(`{"questions": []}`))
	assert.Error(t, err)
}

func TestToHTMLTag(t *testing.T) {
	tag, err := ToHTMLTag(map[string]any{"@context": "https://schema.org", "@type": "Thing", "name": "a </script> & b"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tag, "<script type=\"application/ld+json\">\n{\n  \"@context\""))
	assert.True(t, strings.HasSuffix(tag, "}\n</script>"))
	assert.Contains(t, tag, `a <\/script> & b`)
	assert.Equal(t, 1, strings.Count(tag, "</script>"))

	extraction := Extract(page(tag))
	require.Len(t, extraction.Blocks, 1)
	assert.Equal(t, "a </script> & b", extraction.Blocks[0].Data["name"])
}

func writePage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeFile(t *testing.T) {
	path := writePage(t, "index.html", page(ldScript(websiteJSON)))
	analysis, err := AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"WebSite"}, analysis.Found)
	assert.Equal(t, []string{"webapp", "faq"}, analysis.Missing)
	assert.True(t, analysis.HasHead)

	_, err = AnalyzeFile(writePage(t, "data.json", "{}"))
	assert.ErrorIs(t, err, utils.ErrUnsafePath)
}

func TestInject(t *testing.T) {
	original := "<html>\n<head>\n<title>Site</title>\n</HEAD>\n<body></body>\n</html>\n"
	path := writePage(t, "index.html", original)

	block, err := FromTemplate("website", map[string]string{"name": "Site", "url": "https://site.example"})
	require.NoError(t, err)
	backup, err := Inject(path, block, InjectOptions{Backup: true, Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "index.html.bak", filepath.Base(backup))

	saved, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, original, string(saved))

	updated, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(updated)
	assert.Less(t, strings.Index(content, "application/ld+json"), strings.Index(content, "</HEAD>"))
	assert.True(t, strings.HasSuffix(content, "</HEAD>\n<body></body>\n</html>\n"))

	analysis, err := AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"WebSite"}, analysis.Found)

	_, err = Inject(path, block, InjectOptions{})
	assert.ErrorIs(t, err, ErrAlreadyInjected)
}

func TestInjectRefusals(t *testing.T) {
	noHead := writePage(t, "fragment.html", "<div>no head here</div>")
	_, err := Inject(noHead, FAQ(nil), InjectOptions{Backup: true})
	assert.ErrorIs(t, err, ErrNoHead)
	_, statErr := os.Stat(noHead + ".bak")
	assert.True(t, os.IsNotExist(statErr))

	path := writePage(t, "index.html", page())
	_, err = Inject(path, map[string]any{"@type": "WebSite"}, InjectOptions{Validate: true})
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = Inject(filepath.Join(t.TempDir(), "missing.html"), FAQ(nil), InjectOptions{})
	assert.ErrorIs(t, err, utils.ErrUnsafePath)
}
