// internal/vector/store.go
package vector

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"go-advisor/internal/chunk"
	"go-advisor/internal/retrieval"
)

// metadataKeys are the payload fields surfaced back to the retrieval planner.
// The first four are also indexed for filtering.
var metadataKeys = []string{
	"category", "service_name", "vendor_name", "type",
	"tags", "available_vendors", "file_path",
}

// TextEmbedder turns a query or chunk into its vector.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store holds the knowledge base chunks in a Qdrant collection and serves
// similarity searches over them.
type Store struct {
	client     *qdrant.Client
	collection string
	embedder   TextEmbedder
}

// NewStore connects to Qdrant, ensures the collection and its payload indexes
// exist, and returns a store ready for search and upsert.
func NewStore(qdrantURL, collection, apiKey string, embedder TextEmbedder) (*Store, error) {
	qdrantURL = strings.TrimPrefix(qdrantURL, "http://")
	qdrantURL = strings.TrimPrefix(qdrantURL, "https://")
	host := qdrantURL
	if idx := strings.Index(qdrantURL, ":"); idx != -1 {
		host = qdrantURL[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334, // gRPC port
		APIKey: apiKey,
		UseTLS: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	s := &Store{
		client:     client,
		collection: collection,
		embedder:   embedder,
	}
	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     768,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	for _, field := range []string{"category", "service_name", "vendor_name", "type"} {
		fieldType := qdrant.FieldType(qdrant.PayloadSchemaType_Keyword)
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      &fieldType,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for %s: %w", field, err)
		}
	}
	return nil
}

// Upsert embeds and stores the chunks. Each chunk becomes one point with its
// content, chunk name and metadata in the payload.
func (s *Store) Upsert(ctx context.Context, chunks []chunk.Chunk) error {
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		embedding, err := s.embedder.Embed(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %q: %w", c.Name, err)
		}

		payload := map[string]*qdrant.Value{
			"content":    qdrant.NewValueString(c.Content),
			"chunk_name": qdrant.NewValueString(c.Name),
		}
		for k, v := range c.Metadata {
			payload[k] = qdrant.NewValueString(v)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	log.Printf("[Vector] Upserted %d chunks into %s", len(points), s.collection)
	return nil
}

// Search embeds the query and returns the top k hits, optionally restricted by
// exact-match payload filters.
func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]retrieval.Result, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var qf *qdrant.Filter
	if len(filter) > 0 {
		var must []*qdrant.Condition
		for _, key := range metadataKeys {
			if val, ok := filter[key]; ok {
				must = append(must, qdrant.NewMatch(key, val))
			}
		}
		if len(must) > 0 {
			qf = &qdrant.Filter{Must: must}
		}
	}

	searchResult, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]retrieval.Result, 0, len(searchResult))
	for _, point := range searchResult {
		results = append(results, pointToResult(point))
	}
	return results, nil
}

func pointToResult(point *qdrant.ScoredPoint) retrieval.Result {
	r := retrieval.Result{
		Metadata: make(map[string]string),
	}
	if val, ok := point.Payload["content"]; ok {
		r.Content = val.GetStringValue()
	}
	for _, key := range metadataKeys {
		if val, ok := point.Payload[key]; ok {
			if sv := val.GetStringValue(); sv != "" {
				r.Metadata[key] = sv
			}
		}
	}
	return r
}
