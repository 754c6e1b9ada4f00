package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oss-pulse/contrib-stats/internal/store"
)

// Document names published by the pipelines.
const (
	ContributorsDocument = "contributors_history"
	RankingsDocument     = "rankings"
	StarsDocument        = "stars_history"
)

// Publish marshals a document and writes it to every configured store. A
// write failure is surfaced to the caller; it is never silently dropped.
func Publish(ctx context.Context, stores []store.Store, name string, doc any) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	for _, backend := range stores {
		if err := backend.Put(ctx, name, payload); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	return nil
}
