package services

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"kmllinks/internal/domain"
)

var featureKinds = map[string]domain.NodeKind{
	"Document":      domain.NodeContainer,
	"Folder":        domain.NodeContainer,
	"NetworkLink":   domain.NodeNetworkLink,
	"Placemark":     domain.NodeContent,
	"GroundOverlay": domain.NodeContent,
	"ScreenOverlay": domain.NodeContent,
	"PhotoOverlay":  domain.NodeContent,
	"Tour":          domain.NodeContent,
}

type linkXML struct {
	Href            string `xml:"href"`
	RefreshMode     string `xml:"refreshMode"`
	RefreshInterval string `xml:"refreshInterval"`
}

// ParseKML decodes the feature hierarchy of a KML document. Geometry and
// styles are skipped; only names, descriptions, visibility and network link
// parameters are kept.
func ParseKML(r io.Reader) ([]*domain.Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", ErrNoKML)
		}
		if err != nil {
			return nil, fmt.Errorf("decode kml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "kml" {
			return nil, fmt.Errorf("%w: root element is %q", ErrNoKML, start.Name.Local)
		}
		root := &domain.Node{Kind: domain.NodeContainer}
		if err := readFeature(dec, root, ""); err != nil {
			return nil, fmt.Errorf("decode kml: %w", err)
		}
		return root.Children, nil
	}
}

// readFeature consumes tokens up to the end of the current element.
func readFeature(dec *xml.Decoder, node *domain.Node, path string) error {
	index := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if kind, ok := featureKinds[t.Name.Local]; ok {
				childPath := strconv.Itoa(index)
				if path != "" {
					childPath = path + "/" + childPath
				}
				index++
				child := &domain.Node{ID: featureID(t, childPath), Kind: kind, Visible: true}
				if err := readFeature(dec, child, childPath); err != nil {
					return err
				}
				node.Children = append(node.Children, child)
				continue
			}
			if err := readProperty(dec, t, node); err != nil {
				return err
			}
		}
	}
}

func readProperty(dec *xml.Decoder, start xml.StartElement, node *domain.Node) error {
	switch start.Name.Local {
	case "name", "description", "visibility":
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return err
		}
		switch start.Name.Local {
		case "name":
			node.Name = strings.TrimSpace(text)
		case "description":
			node.Description = plainText(text)
		case "visibility":
			value := strings.TrimSpace(text)
			node.Visible = value != "0" && value != "false"
		}
		return nil
	case "Link", "Url":
		if node.Kind != domain.NodeNetworkLink {
			return dec.Skip()
		}
		var link linkXML
		if err := dec.DecodeElement(&link, &start); err != nil {
			return err
		}
		node.Href = strings.TrimSpace(link.Href)
		node.RefreshMode = strings.TrimSpace(link.RefreshMode)
		if node.RefreshMode == "onInterval" {
			node.RefreshInterval = parseSeconds(link.RefreshInterval)
		}
		return nil
	default:
		return dec.Skip()
	}
}

func featureID(start xml.StartElement, fallback string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == "id" && attr.Value != "" {
			return attr.Value
		}
	}
	return fallback
}

// parseSeconds reads a KML refreshInterval. KML's default of 4 seconds applies
// when the value is missing. Intervals too large for a time.Duration are capped.
func parseSeconds(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 4 * time.Second
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	nanos := seconds * float64(time.Second)
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(nanos)
}

// plainText flattens HTML descriptions to single-spaced text.
func plainText(description string) string {
	description = strings.TrimSpace(description)
	if !strings.ContainsAny(description, "<&") {
		return strings.Join(strings.Fields(description), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return description
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
