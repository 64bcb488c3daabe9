package qdrant

import (
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
)

// Payload field names used in filters and full-text match.
const (
	fieldProjectID      = "project_id"
	fieldFileID         = "file_id"
	fieldLanguage       = "language"
	fieldPages          = "pages"
	fieldParagraphTexts = "paragraph_texts"
)

// buildFilter converts a domain filter into index match conditions. Returns
// nil when no condition is set so the query is unfiltered.
func buildFilter(f domsearch.Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var must []*qdrant.Condition
	if f.ProjectID != nil {
		must = append(must, qdrant.NewMatchInt(fieldProjectID, *f.ProjectID))
	}
	if f.FileID != nil {
		must = append(must, qdrant.NewMatchInt(fieldFileID, *f.FileID))
	}
	if f.Language != "" {
		must = append(must, qdrant.NewMatch(fieldLanguage, f.Language))
	}
	if len(f.Pages) > 0 {
		pages := make([]int64, len(f.Pages))
		for i, p := range f.Pages {
			pages[i] = int64(p)
		}
		must = append(must, qdrant.NewMatchInts(fieldPages, pages...))
	}
	return &qdrant.Filter{Must: must}
}

// matchTextFilter extends the domain filter with a full-text condition over
// the paragraph texts.
func matchTextFilter(f domsearch.Filter, queryText string) *qdrant.Filter {
	filter := buildFilter(f)
	if filter == nil {
		filter = &qdrant.Filter{}
	}
	filter.Must = append(filter.Must, qdrant.NewMatchText(fieldParagraphTexts, queryText))
	return filter
}

// payloadToValues converts the chunk payload to the index value map through
// a JSON roundtrip, keeping the wire field names in one place (the payload
// json tags).
func payloadToValues(p domchunk.Payload) (map[string]*qdrant.Value, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return qdrant.NewValueMap(m), nil
}

// valuesToPayload converts an index value map back into the chunk payload.
func valuesToPayload(values map[string]*qdrant.Value) (domchunk.Payload, error) {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = valueToAny(v)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return domchunk.Payload{}, fmt.Errorf("marshal values: %w", err)
	}
	var p domchunk.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domchunk.Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}

func valueToAny(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = valueToAny(item)
		}
		return out
	case *qdrant.Value_StructValue:
		fields := k.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for name, item := range fields {
			out[name] = valueToAny(item)
		}
		return out
	default:
		return nil
	}
}

// scoredToResults converts scored points into domain results.
func scoredToResults(points []*qdrant.ScoredPoint) ([]domsearch.Result, error) {
	results := make([]domsearch.Result, len(points))
	for i, p := range points {
		payload, err := valuesToPayload(p.GetPayload())
		if err != nil {
			return nil, err
		}
		results[i] = domsearch.Result{
			PointID: p.GetId().GetUuid(),
			Score:   float64(p.GetScore()),
			Payload: payload,
		}
	}
	return results, nil
}

// retrievedToResults converts retrieved (scoreless) points into domain
// results. Scroll and full-text match have no similarity score.
func retrievedToResults(points []*qdrant.RetrievedPoint) ([]domsearch.Result, error) {
	results := make([]domsearch.Result, len(points))
	for i, p := range points {
		payload, err := valuesToPayload(p.GetPayload())
		if err != nil {
			return nil, err
		}
		results[i] = domsearch.Result{
			PointID: p.GetId().GetUuid(),
			Payload: payload,
		}
	}
	return results, nil
}
