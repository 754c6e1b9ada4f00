package ingest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Actor is the author object attached to items, comments, and reviews.
type Actor struct {
	Login string `json:"login"`
}

// Interaction is a nested comment or review node.
type Interaction struct {
	Author    *Actor `json:"author"`
	CreatedAt string `json:"createdAt"`
}

// InteractionList is the paginated wrapper around nested interactions.
type InteractionList struct {
	Edges []struct {
		Node *Interaction `json:"node"`
	} `json:"edges"`
}

// Record is one cached pull request, issue, or discussion node.
type Record struct {
	Author    *Actor          `json:"author"`
	CreatedAt string          `json:"createdAt"`
	MergedAt  string          `json:"mergedAt"`
	Comments  InteractionList `json:"comments"`
	Reviews   InteractionList `json:"reviews"`
}

// StarRecord is one cached stargazer edge.
type StarRecord struct {
	StarredAt string `json:"starredAt"`
	Node      *Actor `json:"node"`
}

// Cache files come in two shapes: a bare JSON array of edges, or an object
// whose "data" key holds that array. decodeEdgeList normalizes both into one
// sequence before any record is inspected.
func decodeEdgeList(payload []byte) ([]json.RawMessage, error) {
	var edges []json.RawMessage
	if err := json.Unmarshal(payload, &edges); err == nil {
		return edges, nil
	}

	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected cache format: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("unexpected cache format: no edge array")
	}
	return envelope.Data, nil
}

// DecodeRecords decodes contribution edges from a raw cache payload.
// Edges with the wrong shape or no node are skipped, never fatal.
func DecodeRecords(payload []byte) ([]Record, error) {
	edges, err := decodeEdgeList(payload)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(edges))
	for _, raw := range edges {
		var edge struct {
			Node *Record `json:"node"`
		}
		if err := json.Unmarshal(raw, &edge); err != nil || edge.Node == nil {
			continue
		}
		records = append(records, *edge.Node)
	}
	return records, nil
}

// DecodeStars decodes stargazer edges from a raw cache payload.
func DecodeStars(payload []byte) ([]StarRecord, error) {
	edges, err := decodeEdgeList(payload)
	if err != nil {
		return nil, err
	}

	stars := make([]StarRecord, 0, len(edges))
	for _, raw := range edges {
		var edge StarRecord
		if err := json.Unmarshal(raw, &edge); err != nil {
			continue
		}
		stars = append(stars, edge)
	}
	return stars, nil
}

// ReadRecordsFile reads and decodes one contribution cache file.
func ReadRecordsFile(path string) ([]Record, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return DecodeRecords(payload)
}

// ReadStarsFile reads and decodes one stargazer cache file.
func ReadStarsFile(path string) ([]StarRecord, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return DecodeStars(payload)
}
