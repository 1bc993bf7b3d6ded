package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"kmllinks/internal/report"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatText, FormatYAML, FormatJSON:
		return Format(value), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use text, yaml, or json)", value)
	}
}

// ReportResult is the serialized form of a report.
type ReportResult struct {
	Source     string       `yaml:"source"     json:"source"`
	Generation uint64       `yaml:"generation" json:"generation"`
	BuiltAt    time.Time    `yaml:"builtAt"    json:"builtAt"`
	Links      []LinkResult `yaml:"links"      json:"links"`
}

type LinkResult struct {
	Name                   string  `yaml:"name"                   json:"name"`
	RefreshIntervalSeconds float64 `yaml:"refreshIntervalSeconds" json:"refreshIntervalSeconds"`
}

func NewReportResult(rep report.Report) ReportResult {
	links := make([]LinkResult, 0, len(rep.Entries))
	for _, entry := range rep.Entries {
		links = append(links, LinkResult{Name: entry.Name, RefreshIntervalSeconds: entry.RefreshInterval.Seconds()})
	}
	return ReportResult{
		Source:     rep.Source,
		Generation: rep.Generation,
		BuiltAt:    rep.BuiltAt,
		Links:      links,
	}
}

// Print writes rep to w in the given format.
func Print(w io.Writer, format Format, rep report.Report) error {
	switch format {
	case FormatText:
		_, err := io.WriteString(w, rep.String())
		return err
	case FormatJSON:
		return PrintJSON(w, NewReportResult(rep))
	case FormatYAML:
		return PrintYAML(w, NewReportResult(rep))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// PrintJSON serializes v to w as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to w as YAML.
func PrintYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
