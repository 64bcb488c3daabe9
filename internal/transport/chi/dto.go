package chi

import (
	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codePointNotFound          = "point_not_found"
	codeCollectionNotFound     = "collection_not_found"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeIndexUnavailable       = "index_unavailable"
	codeInternalError          = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FilterDTO narrows a search by payload metadata.
type FilterDTO struct {
	ProjectID *int64 `json:"project_id,omitempty"`
	FileID    *int64 `json:"file_id,omitempty"`
	Language  string `json:"language,omitempty"`
	Pages     []int  `json:"pages,omitempty"`
}

func (f *FilterDTO) toDomain() domsearch.Filter {
	if f == nil {
		return domsearch.Filter{}
	}
	return domsearch.Filter{
		ProjectID: f.ProjectID,
		FileID:    f.FileID,
		Language:  f.Language,
		Pages:     f.Pages,
	}
}

// DenseSearchRequest is the body for dense and sparse search endpoints.
type DenseSearchRequest struct {
	QueryText      string     `json:"query_text"`
	Limit          int        `json:"limit,omitempty"`
	ScoreThreshold *float64   `json:"score_threshold,omitempty"`
	Filter         *FilterDTO `json:"filter,omitempty"`
}

// MatchTextSearchRequest is the body for the full-text match endpoint.
type MatchTextSearchRequest struct {
	QueryText string     `json:"query_text"`
	Limit     int        `json:"limit,omitempty"`
	Filter    *FilterDTO `json:"filter,omitempty"`
}

// HybridSearchRequest is the body for the hybrid RRF endpoint.
type HybridSearchRequest struct {
	QueryText      string     `json:"query_text"`
	Limit          int        `json:"limit,omitempty"`
	ScoreThreshold *float64   `json:"score_threshold,omitempty"`
	RRFK           int        `json:"rrf_k,omitempty"`
	Filter         *FilterDTO `json:"filter,omitempty"`
}

// RecommendSearchRequest is the body for the recommend endpoint.
type RecommendSearchRequest struct {
	PositiveIDs    []string   `json:"positive_ids"`
	NegativeIDs    []string   `json:"negative_ids,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	ScoreThreshold *float64   `json:"score_threshold,omitempty"`
	Strategy       string     `json:"strategy,omitempty"`
	Filter         *FilterDTO `json:"filter,omitempty"`
}

// ContextPairDTO is one positive/negative example pair for discovery.
type ContextPairDTO struct {
	PositiveID string `json:"positive_id"`
	NegativeID string `json:"negative_id"`
}

// DiscoverSearchRequest is the body for the discover endpoint.
type DiscoverSearchRequest struct {
	TargetText   string           `json:"target_text"`
	ContextPairs []ContextPairDTO `json:"context_pairs"`
	Limit        int              `json:"limit,omitempty"`
	Filter       *FilterDTO       `json:"filter,omitempty"`
}

// ScrollSearchRequest is the body for the scroll endpoint.
type ScrollSearchRequest struct {
	Limit  int        `json:"limit,omitempty"`
	Offset string     `json:"offset,omitempty"`
	Filter *FilterDTO `json:"filter,omitempty"`
}

// SearchResultItem is one scored search result.
type SearchResultItem struct {
	PointID string           `json:"point_id"`
	Score   float64          `json:"score"`
	Payload domchunk.Payload `json:"payload"`
}

// SearchResponse is the body for all search endpoints.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Count   int                `json:"count"`
}

// ScrollResponse carries one page of scrolled points and the next offset.
type ScrollResponse struct {
	Results    []SearchResultItem `json:"results"`
	Count      int                `json:"count"`
	NextOffset string             `json:"next_offset,omitempty"`
}

func resultsToDTO(results []domsearch.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		items[i] = SearchResultItem{
			PointID: r.PointID,
			Score:   r.Score,
			Payload: r.Payload,
		}
	}
	return items
}

// CreateChunkRequest is the body for creating one chunk. Field names mirror
// the stored payload.
type CreateChunkRequest struct {
	ChunkID                   string                   `json:"chunk_id,omitempty"`
	FileID                    int64                    `json:"file_id"`
	ProjectID                 int64                    `json:"project_id"`
	StorageFileName           string                   `json:"storage_file_name,omitempty"`
	OriginalFileName          string                   `json:"original_file_name,omitempty"`
	MimeType                  string                   `json:"mime_type,omitempty"`
	TotalPages                int                      `json:"total_pages,omitempty"`
	ProcessingDurationSeconds int                      `json:"processing_duration_seconds,omitempty"`
	Language                  string                   `json:"language,omitempty"`
	Pages                     []int                    `json:"pages,omitempty"`
	ChunkNumber               int                      `json:"chunk_number,omitempty"`
	ParagraphTexts            []string                 `json:"paragraph_texts"`
	ChunkContent              domchunk.Content         `json:"chunk_content,omitempty"`
	PageDimensions            []domchunk.PageDimension `json:"page_dimensions,omitempty"`
}

func (r CreateChunkRequest) toDomain() domchunk.Create {
	return domchunk.Create{
		ChunkID:                   r.ChunkID,
		FileID:                    r.FileID,
		ProjectID:                 r.ProjectID,
		StorageFileName:           r.StorageFileName,
		OriginalFileName:          r.OriginalFileName,
		MimeType:                  r.MimeType,
		TotalPages:                r.TotalPages,
		ProcessingDurationSeconds: r.ProcessingDurationSeconds,
		Language:                  r.Language,
		Pages:                     r.Pages,
		ChunkNumber:               r.ChunkNumber,
		ParagraphTexts:            r.ParagraphTexts,
		ChunkContent:              r.ChunkContent,
		PageDimensions:            r.PageDimensions,
	}
}

// BatchCreateChunksRequest is the body for batch chunk creation.
type BatchCreateChunksRequest struct {
	Chunks []CreateChunkRequest `json:"chunks"`
}

func toCreates(reqs []CreateChunkRequest) []domchunk.Create {
	out := make([]domchunk.Create, len(reqs))
	for i, r := range reqs {
		out[i] = r.toDomain()
	}
	return out
}

// UpdateChunkRequest is the body for a partial chunk update. Absent fields
// are left untouched; a present paragraph_texts triggers re-vectorization.
type UpdateChunkRequest struct {
	FileID           *int64            `json:"file_id,omitempty"`
	ProjectID        *int64            `json:"project_id,omitempty"`
	StorageFileName  *string           `json:"storage_file_name,omitempty"`
	OriginalFileName *string           `json:"original_file_name,omitempty"`
	ParagraphTexts   []string          `json:"paragraph_texts,omitempty"`
	ChunkContent     *domchunk.Content `json:"chunk_content,omitempty"`
}

func (r UpdateChunkRequest) toDomain() domchunk.Update {
	return domchunk.Update{
		FileID:           r.FileID,
		ProjectID:        r.ProjectID,
		StorageFileName:  r.StorageFileName,
		OriginalFileName: r.OriginalFileName,
		ParagraphTexts:   r.ParagraphTexts,
		ChunkContent:     r.ChunkContent,
	}
}

// BatchDeleteChunksRequest is the body for batch chunk deletion.
type BatchDeleteChunksRequest struct {
	ChunkIDs []string `json:"chunk_ids"`
}

// ChunkResponse is the body returned for chunk reads and writes.
type ChunkResponse struct {
	PointID string           `json:"point_id"`
	Payload domchunk.Payload `json:"payload"`
}

// BatchCreateChunksResponse lists the stored chunks.
type BatchCreateChunksResponse struct {
	Chunks []ChunkResponse `json:"chunks"`
	Count  int             `json:"count"`
}

func storedToDTO(s domchunk.Stored) ChunkResponse {
	return ChunkResponse{PointID: s.PointID, Payload: s.Payload}
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
