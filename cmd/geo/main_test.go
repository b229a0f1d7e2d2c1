package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the CLI from an empty directory so no project config is picked up.
func runGeo(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(previous) })

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const page = `<!DOCTYPE html>
<html>
<head>
  <title>Example</title>
</head>
<body><h1>Example</h1></body>
</html>
`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runGeo(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "geo dev\n", stdout)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"crawl"}},
		{"audit without url", []string{"audit"}},
		{"audit bad format", []string{"audit", "--url", "https://example.com", "--format", "xml"}},
		{"audit bad flag", []string{"audit", "--depth", "3"}},
		{"audit ftp", []string{"audit", "--url", "ftp://example.com"}},
		{"audit private target", []string{"audit", "--url", "http://127.0.0.1:9"}},
		{"audit missing config", []string{"audit", "--url", "https://example.com", "--config", "nope.yml"}},
		{"llms without url", []string{"llms"}},
		{"llms private target", []string{"llms", "--base-url", "http://10.0.0.1"}},
		{"schema without action", []string{"schema"}},
		{"schema unknown template", []string{"schema", "--type", "recipe"}},
		{"schema analyze without file", []string{"schema", "--analyze"}},
		{"schema inject without file", []string{"schema", "--type", "website", "--inject"}},
		{"schema analyze wrong extension", []string{"schema", "--analyze", "--file", "notes.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runGeo(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestHelpIsNotAnError(t *testing.T) {
	code, _, stderr := runGeo(t, "audit", "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "-url")
}

func TestSchemaPrintsTag(t *testing.T) {
	code, stdout, _ := runGeo(t, "schema", "--type", "website", "--name", "Example", "--url", "https://example.com")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, `<script type="application/ld+json">`)
	assert.Contains(t, stdout, `"@type": "WebSite"`)
	assert.Contains(t, stdout, `"name": "Example"`)
}

func TestSchemaFAQFromFile(t *testing.T) {
	faqPath := filepath.Join(t.TempDir(), "faq.json")
	require.NoError(t, os.WriteFile(faqPath, []byte(`[{"question": "Is it free?", "answer": "Yes."}]`), 0o644))

	code, stdout, _ := runGeo(t, "schema", "--type", "faq", "--faq-file", faqPath)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, `"@type": "FAQPage"`)
	assert.Contains(t, stdout, "Is it free?")
}

func TestSchemaInjectAndAnalyze(t *testing.T) {
	path := writePage(t)

	code, stdout, _ := runGeo(t, "schema", "--analyze", "--file", path)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No JSON-LD schema found")
	assert.Contains(t, stdout, "WebSite (geo schema --type website)")

	code, stdout, _ = runGeo(t, "schema", "--type", "website", "--name", "Example", "--url", "https://example.com", "--inject", "--file", path)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Schema injected into")
	assert.FileExists(t, path+".bak")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"@type": "WebSite"`)

	code, stdout, _ = runGeo(t, "schema", "--analyze", "--file", path)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "✓ WebSite")
	assert.NotContains(t, stdout, "WebSite (geo schema")

	code, _, stderr := runGeo(t, "schema", "--type", "website", "--name", "Example", "--url", "https://example.com", "--inject", "--file", path)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "already present")
}

func TestSchemaInjectWithoutBackup(t *testing.T) {
	path := writePage(t)
	code, _, _ := runGeo(t, "schema", "--type", "organization", "--name", "Example", "--url", "https://example.com", "--inject", "--no-backup", "--file", path)
	require.Equal(t, exitOK, code)
	assert.NoFileExists(t, path+".bak")
}
