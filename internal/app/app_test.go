package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmllinks/internal/config"
	"kmllinks/internal/domain"
	"kmllinks/internal/logging"
	"kmllinks/internal/report"
	"kmllinks/internal/services"
)

func demoConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Demo = true
	return cfg
}

func TestReporter_LoadOnceDemo(t *testing.T) {
	cfg := demoConfig()
	svc := NewServices(cfg, logging.Discard())
	svc.Loader.(*services.MockLoader).Delay = 0

	rep, err := NewReporter(cfg, svc, logging.Discard()).LoadOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rep.Generation)
	assert.Equal(t, "demo://network-links", rep.Source)
	assert.Len(t, rep.Entries, 3)
}

func TestReporter_LoadOnceOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sharing/rest/content/items/item1":
			w.Write([]byte(`{"url":"` + "http://" + r.Host + `/data/root.kml"}`))
		case "/data/root.kml":
			w.Write([]byte(`<kml><NetworkLink><name>Feed</name><Link><href>feed.kml</href>` +
				`<refreshMode>onInterval</refreshMode><refreshInterval>15</refreshInterval></Link></NetworkLink></kml>`))
		case "/data/feed.kml":
			w.Write([]byte(`<kml><NetworkLink><name>Nested</name></NetworkLink></kml>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.PortalURL = server.URL
	cfg.ItemID = "item1"
	svc := NewServices(cfg, logging.Discard())

	rep, err := NewReporter(cfg, svc, logging.Discard()).LoadOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"Network Link Name: Feed - Network Link Refresh Interval: 15\n"+
			"Network Link Name: Nested - Network Link Refresh Interval: 0\n",
		rep.String())
}

func TestReporter_ResolveFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := Services{
		Loader:   services.NewMockLoader(),
		Resolver: services.MockResolver{Err: services.ErrItemNotFound},
	}
	_, err := NewReporter(cfg, svc, logging.Discard()).LoadOnce(context.Background())
	assert.True(t, errors.Is(err, services.ErrItemNotFound))
	assert.True(t, errors.Is(NewReporter(cfg, svc, logging.Discard()).Watch(context.Background(), func(report.Report) error { return nil }), services.ErrItemNotFound))
}

func TestReporter_WatchStopsOnCancel(t *testing.T) {
	cfg := demoConfig()
	cfg.MinRefresh = 10 * time.Millisecond
	svc := NewServices(cfg, logging.Discard())
	loader := svc.Loader.(*services.MockLoader)
	loader.Delay = 0
	loader.Build = func() domain.Tree {
		return domain.Tree{Roots: []*domain.Node{{
			ID: "0", Name: "Fast", Kind: domain.NodeNetworkLink,
			RefreshMode: "onInterval", RefreshInterval: 20 * time.Millisecond,
		}}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var generations []uint64
	err := NewReporter(cfg, svc, logging.Discard()).Watch(ctx, func(rep report.Report) error {
		generations = append(generations, rep.Generation)
		if len(generations) == 2 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, generations)
}
