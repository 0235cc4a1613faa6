package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getlantern/httpsaudit/internal/scan"
)

var findings = []scan.Finding{
	{Path: "a.html", Line: 1, Column: 5, Original: "http://www.example.com/", Upgraded: "https://www.example.com/"},
	{Path: "a.html", Line: 3, Column: 1, Original: "http://cdn.example.com/x.js", Upgraded: "https://cdn.example.com/x.js"},
	{Path: "b.md", Line: 2, Column: 9, Original: "http://fr.wikipedia.co.uk:80/wiki", Upgraded: "https://fr.wikipedia.co.uk/wiki"},
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("http://a.b.example.com/x"))
	assert.Equal(t, "bbc.co.uk", Domain("http://www.bbc.co.uk:8080/"))
	assert.Equal(t, "127.0.0.1", Domain("http://127.0.0.1/"))
	assert.Equal(t, "localhost", Domain("http://localhost:3000/"))
}

func TestSummarize(t *testing.T) {
	summary := Summarize(findings)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, []CountItem{{Key: "example.com", Count: 2}, {Key: "wikipedia.co.uk", Count: 1}}, summary.Domains)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, findings))
	out := buf.String()
	assert.Contains(t, out, "a.html:1:5: http://www.example.com/ -> https://www.example.com/\n")
	assert.Contains(t, out, "3 upgradable URLs in 2 files across 2 domains")
	assert.Contains(t, out, "example.com")

	buf.Reset()
	require.NoError(t, WriteText(&buf, nil))
	assert.Equal(t, "No upgradable URLs found\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, findings))

	var r Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
	assert.Equal(t, findings, r.Findings)
	assert.Equal(t, 3, r.Summary.Total)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", findings))
}
