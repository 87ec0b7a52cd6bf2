package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"boxoffice/internal/config"
	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

// fakeElasticsearch answers like a cluster with an existing index.
func fakeElasticsearch(t *testing.T, searchResponse string) (*ElasticsearchClient, *[]recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = w.Write([]byte(searchResponse))
		case strings.HasSuffix(r.URL.Path, "/_bulk"):
			_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
		default:
			_, _ = w.Write([]byte(`{"result":"ok"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewElasticsearchClient(config.ElasticsearchConfig{URL: srv.URL, Index: "orders", MaxRetries: 1})
	require.NoError(t, err)
	return client, &requests
}

func testOrder() *models.Order {
	released := time.Now()
	return &models.Order{
		ID:         "o-1",
		EventID:    7,
		Status:     models.OrderPaid,
		TotalPrice: decimal.RequireFromString("80.5"),
		Currency:   "USD",
		Contact:    models.Contact{Name: "Ada", Email: "ada@example.com"},
		Lines: []models.OrderLine{
			{ID: "l1", TicketID: "t1"},
			{ID: "l2", TicketID: "t2", ReleasedAt: &released},
		},
	}
}

func TestDocumentFromOrder(t *testing.T) {
	doc := DocumentFromOrder(testOrder())

	assert.Equal(t, "80.50", doc.TotalPrice)
	assert.Equal(t, "paid", doc.Status)
	assert.Equal(t, []string{"t1"}, doc.TicketIDs)
	assert.Equal(t, "ada@example.com", doc.CustomerEmail)
}

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"match_all": map[string]interface{}{}}, buildSearchQuery(SearchQuery{Query: "  "}))

	q := buildSearchQuery(SearchQuery{Query: "ada", Status: "paid", EventID: 7})
	b, ok := q["bool"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, b["must"], 1)
	assert.Len(t, b["filter"], 2)
}

func TestIndexAndSearch(t *testing.T) {
	client, requests := fakeElasticsearch(t, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"o-1","status":"paid","ticket_ids":["t1"]}}]}}`)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, client.IndexOrder(ctx, DocumentFromOrder(testOrder())))
	require.NoError(t, client.UpdateStatus(ctx, "o-1", models.OrderRefunded, time.Now()))
	require.NoError(t, client.BulkIndex(ctx, []OrderDocument{DocumentFromOrder(testOrder())}))

	res, err := client.Search(ctx, SearchQuery{Query: "ada", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "o-1", res.Orders[0].ID)

	var searchBody map[string]interface{}
	for _, r := range *requests {
		if strings.HasSuffix(r.path, "/_search") {
			require.NoError(t, json.Unmarshal([]byte(r.body), &searchBody))
		}
	}
	assert.Equal(t, float64(5), searchBody["from"])
	assert.Equal(t, float64(5), searchBody["size"])

	var sawIndex, sawUpdate bool
	for _, r := range *requests {
		sawIndex = sawIndex || (r.method == http.MethodPut && r.path == "/orders/_doc/o-1")
		sawUpdate = sawUpdate || r.path == "/orders/_update/o-1"
	}
	assert.True(t, sawIndex)
	assert.True(t, sawUpdate)
}
