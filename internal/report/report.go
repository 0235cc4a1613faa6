// Package report renders scan findings.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/net/publicsuffix"

	"github.com/getlantern/httpsaudit"
	"github.com/getlantern/httpsaudit/internal/scan"
)

// Formats understood by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Summary struct {
	Total   int         `json:"total"`
	Files   int         `json:"files"`
	Domains []CountItem `json:"domains"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Report struct {
	Summary  Summary        `json:"summary"`
	Findings []scan.Finding `json:"findings"`
}

// Summarize counts findings per file and per registrable domain, busiest
// domain first.
func Summarize(findings []scan.Finding) Summary {
	summary := Summary{Total: len(findings)}
	files := make(map[string]bool)
	domains := make(map[string]int)
	for _, f := range findings {
		files[f.Path] = true
		domains[Domain(f.Original)]++
	}
	summary.Files = len(files)
	for k, v := range domains {
		summary.Domains = append(summary.Domains, CountItem{Key: k, Count: v})
	}
	sort.Slice(summary.Domains, func(i, j int) bool {
		a, b := summary.Domains[i], summary.Domains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
	return summary
}

// Domain returns the registrable domain (eTLD+1) of rawURL, or its bare host
// when there isn't one, as for IP addresses and single-label names.
func Domain(rawURL string) string {
	host := httpsaudit.Host(rawURL)
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// Write renders findings in the given format.
func Write(w io.Writer, format string, findings []scan.Finding) error {
	switch format {
	case FormatText, "":
		return WriteText(w, findings)
	case FormatJSON:
		return WriteJSON(w, findings)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes the findings and their summary as one JSON document.
func WriteJSON(w io.Writer, findings []scan.Finding) error {
	if findings == nil {
		findings = []scan.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Summary: Summarize(findings), Findings: findings})
}

// WriteText writes one line per finding followed by per-domain totals.
func WriteText(w io.Writer, findings []scan.Finding) error {
	for _, f := range findings {
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s -> %s\n", f.Path, f.Line, f.Column, f.Original, f.Upgraded); err != nil {
			return err
		}
	}
	summary := Summarize(findings)
	if summary.Total == 0 {
		_, err := fmt.Fprintln(w, "No upgradable URLs found")
		return err
	}
	if _, err := fmt.Fprintf(w, "\n%d upgradable URLs in %d files across %d domains\n", summary.Total, summary.Files, len(summary.Domains)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range summary.Domains {
		if _, err := fmt.Fprintf(tw, "  %s\t%d\n", d.Key, d.Count); err != nil {
			return err
		}
	}
	return tw.Flush()
}
