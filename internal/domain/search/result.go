// Package search holds the search request and result models shared between
// the search usecase, the Qdrant repository, and the transport layer.
package search

import "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"

// Result is a single search hit: the point id, the stored chunk payload,
// and the score native to the producing ranking (similarity score for
// vector searches, fusion score after RRF, zero for filter-only modes).
type Result struct {
	PointID string
	Score   float64
	Payload chunk.Payload
}

// Page is one page of a scroll search, with the opaque offset of the next
// page. An empty NextOffset means the scroll is exhausted.
type Page struct {
	Results    []Result
	NextOffset string
}
