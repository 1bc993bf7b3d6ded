package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	maxDocumentBytes    = 32 * 1024 * 1024
	defaultFetchTimeout = 30 * time.Second
)

// Fetcher reads KML documents from http(s) URLs, file URLs or local paths.
// KMZ archives are unpacked to their main KML entry.
type Fetcher struct {
	client  *http.Client
	cache   *documentCache
	group   singleflight.Group
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewFetcher(client *http.Client, ttl time.Duration, log logrus.FieldLogger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client:  client,
		cache:   newDocumentCache(ttl),
		timeout: timeout,
		log:     log,
	}
}

// Fetch returns the KML bytes at location. Results are cached for expiry,
// or the fetcher's TTL when expiry is not positive.
//
// Concurrent callers share one read. The shared read outlives any single
// caller's cancellation and is bounded by the fetcher's own timeout.
func (fetcher *Fetcher) Fetch(ctx context.Context, location string, expiry time.Duration) ([]byte, error) {
	if data, ok := fetcher.cache.get(location); ok {
		fetcher.log.WithField("location", location).Debug("document cache hit")
		return data, nil
	}
	results := fetcher.group.DoChan(location, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetcher.timeout)
		defer cancel()
		raw, err := fetcher.read(flightCtx, location)
		if err != nil {
			return nil, err
		}
		data, err := unpackKMZ(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", location, err)
		}
		fetcher.cache.put(location, data, expiry)
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.([]byte), nil
	}
}

func (fetcher *Fetcher) Invalidate(location string) {
	fetcher.cache.invalidate(location)
}

func (fetcher *Fetcher) InvalidateAll() {
	fetcher.cache.invalidateAll()
}

func (fetcher *Fetcher) read(ctx context.Context, location string) ([]byte, error) {
	parsed, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https":
			return fetcher.get(ctx, location)
		case "file":
			return readLimited(parsed.Path)
		}
	}
	return readLimited(location)
}

func (fetcher *Fetcher) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.google-earth.kml+xml, application/vnd.google-earth.kmz, */*")
	start := time.Now()
	resp, err := fetcher.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: location, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	fetcher.log.WithFields(logrus.Fields{
		"location": location,
		"bytes":    len(data),
		"elapsed":  time.Since(start),
	}).Debug("document fetched")
	return data, nil
}

func readLimited(name string) ([]byte, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxDocumentBytes))
}

func isZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

// unpackKMZ returns data unchanged unless it is a zip archive, in which case
// doc.kml (or the first .kml entry) is extracted.
func unpackKMZ(data []byte) ([]byte, error) {
	if !isZip(data) {
		return data, nil
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open kmz: %w", err)
	}
	var entry *zip.File
	for _, file := range archive.File {
		if !strings.EqualFold(path.Ext(file.Name), ".kml") {
			continue
		}
		if strings.EqualFold(path.Base(file.Name), "doc.kml") {
			entry = file
			break
		}
		if entry == nil {
			entry = file
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w in kmz archive", ErrNoKML)
	}
	reader, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, maxDocumentBytes))
}

// resolveHref resolves a network link href against the document it appears in.
func resolveHref(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err == nil && ref.Scheme != "" && len(ref.Scheme) > 1 {
		return href
	}
	baseURL, err := url.Parse(base)
	if err == nil && baseURL.Scheme != "" && len(baseURL.Scheme) > 1 {
		if ref == nil {
			return href
		}
		return baseURL.ResolveReference(ref).String()
	}
	if filepath.IsAbs(href) {
		return href
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(href))
}
