// Package search keeps the admin order index in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"boxoffice/internal/config"
	"boxoffice/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// OrderDocument is the indexed shape of an order.
type OrderDocument struct {
	ID            string    `json:"id"`
	EventID       int64     `json:"event_id"`
	Status        string    `json:"status"`
	TotalPrice    string    `json:"total_price"`
	Currency      string    `json:"currency"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	TicketIDs     []string  `json:"ticket_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DocumentFromOrder builds the index document. Released lines are left out.
func DocumentFromOrder(o *models.Order) OrderDocument {
	doc := OrderDocument{
		ID:            o.ID,
		EventID:       o.EventID,
		Status:        string(o.Status),
		TotalPrice:    o.TotalPrice.StringFixed(2),
		Currency:      o.Currency,
		CustomerName:  o.Contact.Name,
		CustomerEmail: o.Contact.Email,
		CustomerPhone: o.Contact.Phone,
		TicketIDs:     []string{},
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, l := range o.Lines {
		if l.ReleasedAt == nil {
			doc.TicketIDs = append(doc.TicketIDs, l.TicketID)
		}
	}
	return doc
}

// SearchQuery filters the order search.
type SearchQuery struct {
	Query    string
	Status   string
	EventID  int64
	Page     int
	PageSize int
}

// SearchResult is one page of matching orders.
type SearchResult struct {
	Orders []OrderDocument `json:"orders"`
	Total  int64           `json:"total"`
}

type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	keyword := map[string]interface{}{"type": "keyword"}
	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":       keyword,
				"event_id": map[string]interface{}{"type": "long"},
				"status":   keyword,
				"total_price": map[string]interface{}{
					"type":           "scaled_float",
					"scaling_factor": 100,
				},
				"currency": keyword,
				"customer_name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
					},
				},
				"customer_email": keyword,
				"customer_phone": keyword,
				"ticket_ids":     keyword,
				"created_at":     map[string]interface{}{"type": "date"},
				"updated_at":     map[string]interface{}{"type": "date"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

func (c *ElasticsearchClient) IndexOrder(ctx context.Context, doc OrderDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index order: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// UpdateStatus patches the status of an indexed order.
func (c *ElasticsearchClient) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, at time.Time) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]interface{}{
			"status":     status,
			"updated_at": at,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	req := esapi.UpdateRequest{
		Index:      c.config.Index,
		DocumentID: orderID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update error: %s", res.String())
	}

	return nil
}

// BulkIndex indexes a batch of orders in one request.
func (c *ElasticsearchClient) BulkIndex(ctx context.Context, docs []OrderDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": c.config.Index, "_id": doc.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode order %s: %w", doc.ID, err)
		}
	}

	req := esapi.BulkRequest{
		Body:    &buf,
		Refresh: "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.String())
	}

	var response struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if response.Errors {
		return fmt.Errorf("bulk request had item errors")
	}

	return nil
}

func (c *ElasticsearchClient) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	from := 0
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page > 0 {
		from = (q.Page - 1) * q.PageSize
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":            buildSearchQuery(q),
		"sort":             []map[string]interface{}{{"created_at": map[string]interface{}{"order": "desc"}}},
		"from":             from,
		"size":             q.PageSize,
		"track_total_hits": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{
		Orders: make([]OrderDocument, len(response.Hits.Hits)),
		Total:  response.Hits.Total.Value,
	}
	for i, hit := range response.Hits.Hits {
		result.Orders[i] = hit.Source
	}

	return result, nil
}

func buildSearchQuery(q SearchQuery) map[string]interface{} {
	var must []map[string]interface{}

	if text := strings.TrimSpace(q.Query); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     text,
				"fields":    []string{"customer_name^2", "customer_email", "customer_phone", "id", "ticket_ids"},
				"lenient":   true,
				"fuzziness": "AUTO",
			},
		})
	}

	var filter []map[string]interface{}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"status": q.Status}})
	}
	if q.EventID > 0 {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"event_id": q.EventID}})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{"bool": boolQuery}
}
