package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"
)

// OpenSearchConfig holds connection settings for the OpenSearch backend.
type OpenSearchConfig struct {
	URL           string
	Username      string
	Password      string
	Index         string
	TLSSkipVerify bool
}

// OpenSearchStore bulk-indexes each batch into a single index. Used where
// the archive should be searchable instead of (or alongside) object storage.
type OpenSearchStore struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchStore builds a store targeting cfg.Index.
func NewOpenSearchStore(cfg OpenSearchConfig) (*OpenSearchStore, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.TLSSkipVerify,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	return &OpenSearchStore{client: client, index: cfg.Index}, nil
}

// WriteBatch indexes every record through a bulk indexer. Any failed item
// fails the batch so the caller's retry covers the whole write.
func (s *OpenSearchStore) WriteBatch(ctx context.Context, records [][]byte) error {
	if len(records) == 0 {
		return nil
	}

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: s.client,
		Index:  s.index,
	})
	if err != nil {
		return fmt.Errorf("create bulk indexer: %w", err)
	}

	for _, rec := range records {
		if err := bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(rec),
		}); err != nil {
			return fmt.Errorf("add record to bulk indexer: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flush bulk indexer: %w", err)
	}

	if failed := bi.Stats().NumFailed; failed > 0 {
		return fmt.Errorf("bulk index: %d of %d records failed", failed, len(records))
	}
	return nil
}
