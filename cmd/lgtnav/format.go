package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"lgtnav/internal/hierarchy"
	"lgtnav/internal/locate"
	"lgtnav/internal/results"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as indented JSON without HTML escaping
func formatJSON(resp any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// formatYAML formats the response as YAML
func formatYAML(resp any) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case []hierarchy.Item:
		return formatItemsHuman(v), nil
	case []hierarchy.IncomingCall:
		return formatIncomingHuman(v), nil
	case []hierarchy.OutgoingCall:
		return formatOutgoingHuman(v), nil
	case []hierarchy.Location:
		return formatLocationsHuman(v), nil
	case []results.TestItem:
		return formatTestsHuman(v), nil
	case []results.MetricItem:
		return formatMetricsHuman(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// pos renders a 0-based position as 1-based line:column.
func pos(p locate.Position) string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

func formatItemsHuman(items []hierarchy.Item) string {
	if len(items) == 0 {
		return "No results."
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%-10s %s  %s:%s\n", it.Kind, it.Name, it.File, pos(it.Selection.Start))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatRanges(ranges []locate.Range) string {
	cols := make([]string, 0, len(ranges))
	for _, r := range ranges {
		cols = append(cols, pos(r.Start))
	}
	return strings.Join(cols, ", ")
}

func formatIncomingHuman(calls []hierarchy.IncomingCall) string {
	if len(calls) == 0 {
		return "No callers."
	}
	var b strings.Builder
	for _, c := range calls {
		fmt.Fprintf(&b, "%s  %s:%s\n", c.From.Name, c.From.File, pos(c.From.Selection.Start))
		if len(c.FromRanges) > 0 {
			fmt.Fprintf(&b, "    calls at %s\n", formatRanges(c.FromRanges))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatOutgoingHuman(calls []hierarchy.OutgoingCall) string {
	if len(calls) == 0 {
		return "No callees."
	}
	var b strings.Builder
	for _, c := range calls {
		fmt.Fprintf(&b, "%s  %s:%s\n", c.To.Name, c.To.File, pos(c.To.Selection.Start))
		if len(c.FromRanges) > 0 {
			fmt.Fprintf(&b, "    called at %s\n", formatRanges(c.FromRanges))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatLocationsHuman(locs []hierarchy.Location) string {
	if len(locs) == 0 {
		return "No locations."
	}
	var b strings.Builder
	for _, l := range locs {
		fmt.Fprintf(&b, "%s:%s\n", l.File, pos(l.Range.Start))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatTestsHuman(items []results.TestItem) string {
	if len(items) == 0 {
		return "No test results."
	}
	var b strings.Builder
	for _, it := range items {
		label := it.Test
		switch {
		case label == "" && it.Object != "":
			label = it.Object
		case label == "":
			label = "(file)"
		}
		fmt.Fprintf(&b, "%s:%d  %-7s %s  %s\n", it.File, it.Line+1, it.Scope, label, it.Title)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatMetricsHuman(items []results.MetricItem) string {
	if len(items) == 0 {
		return "No metrics."
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%s:%d  %s\n", it.File, it.Line+1, it.Title)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
