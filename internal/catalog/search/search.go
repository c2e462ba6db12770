package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Skotchmaster/rocketshoes/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

// Index searches products stored in one Elasticsearch index.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func buildQuery(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
}

func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search %s: %w", ix.Name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search %s: %s", ix.Name, res.Status())
	}
	return decodeHits(res.Body)
}

func decodeHits(body io.Reader) (int64, []models.Product, error) {
	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}

// IndexProducts writes products into the index, one document per product id.
func (ix *Index) IndexProducts(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %d: %w", p.ID, err)
		}
		res, err := ix.ES.Index(
			ix.Name,
			bytes.NewReader(body),
			ix.ES.Index.WithContext(ctx),
			ix.ES.Index.WithDocumentID(fmt.Sprint(p.ID)),
		)
		if err != nil {
			return fmt.Errorf("index product %d: %w", p.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index product %d: %s", p.ID, res.Status())
		}
	}
	return nil
}
