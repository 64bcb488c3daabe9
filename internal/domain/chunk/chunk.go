// Package chunk holds the OCR chunk data model stored as Qdrant point
// payloads. A chunk is one page window of a legal document with its
// paragraph texts and layout metadata.
package chunk

import (
	"time"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// BBox is a paragraph bounding box in page coordinates.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Paragraph is a single recognized paragraph within a chunk.
type Paragraph struct {
	ParagraphID     string  `json:"paragraph_id"`
	IdxInPage       int     `json:"idx_in_page"`
	Text            string  `json:"text"`
	Page            int     `json:"page"`
	BBox            BBox    `json:"bbox"`
	Type            string  `json:"type"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// PageDimension records the pixel dimensions of one source page.
type PageDimension struct {
	Page   int `json:"page"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Content is the detailed chunk content with paragraph layout.
type Content struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Payload is the complete chunk payload persisted alongside the vectors.
type Payload struct {
	ChunkID                   string          `json:"chunk_id"`
	FileID                    int64           `json:"file_id"`
	ProjectID                 int64           `json:"project_id"`
	StorageFileName           string          `json:"storage_file_name"`
	OriginalFileName          string          `json:"original_file_name"`
	MimeType                  string          `json:"mime_type"`
	TotalPages                int             `json:"total_pages"`
	ProcessingDurationSeconds int             `json:"processing_duration_seconds"`
	Language                  string          `json:"language"`
	Pages                     []int           `json:"pages"`
	ChunkNumber               int             `json:"chunk_number"`
	ParagraphTexts            []string        `json:"paragraph_texts"`
	ChunkContent              Content         `json:"chunk_content"`
	PageDimensions            []PageDimension `json:"page_dimensions"`
	CreatedAt                 string          `json:"created_at"`
}

// Create is the input for creating a chunk. Vectors are generated from
// ParagraphTexts; ChunkID is validated or replaced with a fresh UUID.
type Create struct {
	ChunkID                   string
	FileID                    int64
	ProjectID                 int64
	StorageFileName           string
	OriginalFileName          string
	MimeType                  string
	TotalPages                int
	ProcessingDurationSeconds int
	Language                  string
	Pages                     []int
	ChunkNumber               int
	ParagraphTexts            []string
	ChunkContent              Content
	PageDimensions            []PageDimension
}

// Update carries a partial payload update. Nil fields are left untouched.
// A non-nil ParagraphTexts triggers vector regeneration.
type Update struct {
	FileID           *int64
	ProjectID        *int64
	StorageFileName  *string
	OriginalFileName *string
	ParagraphTexts   []string
	ChunkContent     *Content
}

// Point is one fully vectorized chunk ready for persistence.
type Point struct {
	ID      string
	Dense   []float32
	Sparse  sparse.Vector
	Payload Payload
}

// Stored is a chunk read back from the index.
type Stored struct {
	PointID string
	Payload Payload
}

// NewPayload builds the persisted payload from a create request and the
// final point id.
func NewPayload(id string, c Create) Payload {
	return Payload{
		ChunkID:                   id,
		FileID:                    c.FileID,
		ProjectID:                 c.ProjectID,
		StorageFileName:           c.StorageFileName,
		OriginalFileName:          c.OriginalFileName,
		MimeType:                  c.MimeType,
		TotalPages:                c.TotalPages,
		ProcessingDurationSeconds: c.ProcessingDurationSeconds,
		Language:                  c.Language,
		Pages:                     c.Pages,
		ChunkNumber:               c.ChunkNumber,
		ParagraphTexts:            c.ParagraphTexts,
		ChunkContent:              c.ChunkContent,
		PageDimensions:            c.PageDimensions,
		CreatedAt:                 time.Now().UTC().Format(time.RFC3339),
	}
}
