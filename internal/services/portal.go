package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/buger/jsonparser"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const maxPortalResponseBytes = 1 << 20

// PortalClient resolves portal item ids to the service URL of the item.
type PortalClient struct {
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
	timeout    time.Duration
	log        logrus.FieldLogger
}

func NewPortalClient(baseURL string, client *http.Client, log logrus.FieldLogger) *PortalClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &PortalClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		timeout:    timeout,
		log:        log,
	}
}

func (c *PortalClient) ResolveItem(ctx context.Context, itemID string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", fmt.Errorf("%w: empty item id", ErrItemNotFound)
	}
	results := c.group.DoChan(itemID, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetchItem(flightCtx, itemID)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

func (c *PortalClient) fetchItem(ctx context.Context, itemID string) (string, error) {
	endpoint := c.baseURL + "/sharing/rest/content/items/" + url.PathEscape(itemID) + "?f=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("portal item %s: %w", itemID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPortalResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read portal response: %w", err)
	}

	if message, err := jsonparser.GetString(body, "error", "message"); err == nil {
		code, _ := jsonparser.GetInt(body, "error", "code")
		if code == http.StatusBadRequest || code == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s (%s)", ErrItemNotFound, itemID, message)
		}
		return "", fmt.Errorf("portal item %s: %s", itemID, message)
	}

	serviceURL, err := jsonparser.GetString(body, "url")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return "", fmt.Errorf("%w: item %s has no service url", ErrItemNotFound, itemID)
		}
		return "", fmt.Errorf("parse portal response: %w", err)
	}
	if !govalidator.IsURL(serviceURL) {
		return "", fmt.Errorf("portal item %s: invalid service url %q", itemID, serviceURL)
	}
	c.log.WithFields(logrus.Fields{"item": itemID, "url": serviceURL}).Info("portal item resolved")
	return serviceURL, nil
}
