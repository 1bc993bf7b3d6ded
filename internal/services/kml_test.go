package services

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmllinks/internal/domain"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:atom="http://www.w3.org/2005/Atom">
  <Document id="doc">
    <name>Sample</name>
    <atom:author><atom:name>Someone</atom:name></atom:author>
    <Style id="s"><IconStyle><scale>1.1</scale></IconStyle></Style>
    <Folder>
      <name> Layers </name>
      <visibility>0</visibility>
      <Placemark>
        <name>Point</name>
        <description><![CDATA[<b>Bold</b>   <i>text</i>]]></description>
        <Point><coordinates>8.68,50.11,0</coordinates></Point>
      </Placemark>
      <NetworkLink>
        <name>Live</name>
        <Link>
          <href>live.kml</href>
          <refreshMode>onInterval</refreshMode>
          <refreshInterval>2.5</refreshInterval>
        </Link>
      </NetworkLink>
    </Folder>
    <NetworkLink>
      <name>Static</name>
      <Url><href>http://example.com/static.kml</href></Url>
    </NetworkLink>
    <GroundOverlay><name>Overlay</name></GroundOverlay>
  </Document>
</kml>`

func TestParseKML_Structure(t *testing.T) {
	roots, err := ParseKML(strings.NewReader(sampleKML))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	doc := roots[0]
	assert.Equal(t, "doc", doc.ID)
	assert.Equal(t, "Sample", doc.Name)
	assert.Equal(t, domain.NodeContainer, doc.Kind)
	require.Len(t, doc.Children, 3)

	folder := doc.Children[0]
	assert.Equal(t, "Layers", folder.Name)
	assert.Equal(t, "0/0", folder.ID)
	assert.False(t, folder.Visible)
	require.Len(t, folder.Children, 2)

	placemark := folder.Children[0]
	assert.Equal(t, domain.NodeContent, placemark.Kind)
	assert.Equal(t, "Bold text", placemark.Description)
	assert.True(t, placemark.Visible)

	live := folder.Children[1]
	assert.Equal(t, domain.NodeNetworkLink, live.Kind)
	assert.Equal(t, "live.kml", live.Href)
	assert.Equal(t, "onInterval", live.RefreshMode)
	assert.Equal(t, 2500*time.Millisecond, live.RefreshInterval)

	static := doc.Children[1]
	assert.Equal(t, "Static", static.Name)
	assert.Equal(t, "http://example.com/static.kml", static.Href)
	assert.Equal(t, time.Duration(0), static.RefreshInterval, "no interval without onInterval mode")

	assert.Equal(t, domain.NodeContent, doc.Children[2].Kind)
	assert.Equal(t, "Overlay", doc.Children[2].Name)
}

func TestParseKML_TopLevelFeatures(t *testing.T) {
	input := `<kml><NetworkLink><name>A</name></NetworkLink><NetworkLink><name>B</name></NetworkLink></kml>`
	roots, err := ParseKML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "A", roots[0].Name)
	assert.Equal(t, "1", roots[1].ID)
}

func TestParseKML_DefaultInterval(t *testing.T) {
	input := `<kml><NetworkLink><name>A</name><Link><href>a.kml</href><refreshMode>onInterval</refreshMode></Link></NetworkLink></kml>`
	roots, err := ParseKML(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, roots[0].RefreshInterval)

	tests := []struct {
		value    string
		expected time.Duration
	}{
		{value: "2.5", expected: 2500 * time.Millisecond},
		{value: "-3", expected: 0},
		{value: "soon", expected: 0},
		{value: "NaN", expected: 0},
		{value: "Inf", expected: 0},
		{value: "-Inf", expected: 0},
		{value: "1e12", expected: time.Duration(math.MaxInt64)},
		{value: "1e300", expected: time.Duration(math.MaxInt64)},
	}
	for _, test := range tests {
		input := `<kml><NetworkLink><name>A</name><Link><refreshMode>onInterval</refreshMode><refreshInterval>` +
			test.value + `</refreshInterval></Link></NetworkLink></kml>`
		roots, err := ParseKML(strings.NewReader(input))
		require.NoError(t, err, test.value)
		assert.Equal(t, test.expected, roots[0].RefreshInterval, test.value)
		assert.GreaterOrEqual(t, roots[0].RefreshInterval, time.Duration(0), test.value)
	}
}

func TestParseKML_Errors(t *testing.T) {
	_, err := ParseKML(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoKML))

	_, err = ParseKML(strings.NewReader("<html><body/></html>"))
	assert.True(t, errors.Is(err, ErrNoKML))

	_, err = ParseKML(strings.NewReader("<kml><Document><name>x</name>"))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a b", plainText("  a \n b "))
	assert.Equal(t, "Tom & Jerry", plainText("Tom &amp; Jerry"))
	assert.Equal(t, "Title body", plainText("<h1>Title</h1><p>body</p>"))
}
