// Package contentindex provides the Bleve full-text index over accepted events and audio tracks.
package contentindex

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/bonkai/bonkai/internal/models"
)

// Content kinds stored in the index.
const (
	KindEvent = "event"
	KindAudio = "audio"
)

// Document is the indexed form of a piece of accepted content.
type Document struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Index wraps a Bleve index over accepted content.
type Index struct {
	index bleve.Index
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so ticker-style
	// terms like "bonk" match exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	im.AddDocumentMapping("content", docMapping)
	im.DefaultType = "content"
	im.DefaultMapping = docMapping

	return im
}

// New creates or opens a Bleve index at path. An existing index is reused.
func New(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open content index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create content index: %w", err)
	}
	return &Index{index: index}, nil
}

// NewMemory creates an in-memory index. Used in tests.
func NewMemory() (*Index, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create content index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexEvent indexes an accepted event.
func (i *Index) IndexEvent(ctx context.Context, event *models.Event) error {
	return i.index.Index(event.ID, &Document{
		ID:          event.ID,
		Kind:        KindEvent,
		Title:       event.Title,
		Description: event.Description,
		Tags:        event.Tags,
	})
}

// IndexTrack indexes an accepted audio track.
func (i *Index) IndexTrack(ctx context.Context, track *models.AudioTrack) error {
	return i.index.Index(track.ID, &Document{
		ID:          track.ID,
		Kind:        KindAudio,
		Title:       track.Title,
		Description: track.Description,
		Tags:        track.Tags,
	})
}

// Delete removes a document by id.
func (i *Index) Delete(ctx context.Context, id string) error {
	return i.index.Delete(id)
}

// Search runs a match query and returns up to limit hits.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]*models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	req.Fields = []string{"kind", "title"}
	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	hits := make([]*models.SearchHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := &models.SearchHit{ID: hit.ID, Score: hit.Score}
		if kind, ok := hit.Fields["kind"].(string); ok {
			h.Kind = kind
		}
		if title, ok := hit.Fields["title"].(string); ok {
			h.Title = title
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}
