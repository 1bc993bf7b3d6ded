// Package report builds the network link refresh report for a loaded KML tree.
package report

import (
	"strconv"
	"strings"
	"time"

	"kmllinks/internal/domain"
)

// Entry is one network link in traversal order.
type Entry struct {
	Name            string        `json:"name" yaml:"name"`
	RefreshInterval time.Duration `json:"refreshInterval" yaml:"refreshInterval"`
}

// Report is the set of entries produced by a single load generation.
type Report struct {
	Generation uint64    `json:"generation" yaml:"generation"`
	Source     string    `json:"source" yaml:"source"`
	Entries    []Entry   `json:"entries" yaml:"entries"`
	BuiltAt    time.Time `json:"builtAt" yaml:"builtAt"`
}

// Build walks the roots depth first and returns one entry per network link.
// Only network links are descended into; containers and content are not.
func Build(roots []*domain.Node) []Entry {
	entries := []Entry{}
	collect(roots, &entries)
	return entries
}

func collect(nodes []*domain.Node, entries *[]Entry) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		switch node.Kind {
		case domain.NodeNetworkLink:
			*entries = append(*entries, Entry{Name: node.Name, RefreshInterval: node.RefreshInterval})
			collect(node.Children, entries)
		case domain.NodeContainer, domain.NodeContent:
		}
	}
}

// New builds the report for the tree published by generation.
func New(generation uint64, source string, roots []*domain.Node) Report {
	return Report{
		Generation: generation,
		Source:     source,
		Entries:    Build(roots),
		BuiltAt:    time.Now(),
	}
}

// FormatEntry renders a single report line without the trailing newline.
func FormatEntry(entry Entry) string {
	return "Network Link Name: " + entry.Name + " - Network Link Refresh Interval: " + FormatInterval(entry.RefreshInterval)
}

// FormatInterval renders an interval as seconds using the shortest decimal form.
func FormatInterval(interval time.Duration) string {
	return strconv.FormatFloat(interval.Seconds(), 'f', -1, 64)
}

// Format renders one line per entry, each terminated by a newline.
func Format(entries []Entry) string {
	var builder strings.Builder
	for _, entry := range entries {
		builder.WriteString(FormatEntry(entry))
		builder.WriteString("\n")
	}
	return builder.String()
}

func (report Report) String() string {
	return Format(report.Entries)
}

// ShortestInterval returns the smallest positive refresh interval, or zero.
func (report Report) ShortestInterval() time.Duration {
	var shortest time.Duration
	for _, entry := range report.Entries {
		if entry.RefreshInterval <= 0 {
			continue
		}
		if shortest == 0 || entry.RefreshInterval < shortest {
			shortest = entry.RefreshInterval
		}
	}
	return shortest
}
