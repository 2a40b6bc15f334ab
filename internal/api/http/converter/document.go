package converter

import (
	"encoding/json"
	"time"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

type DocumentResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Owner       string            `json:"owner"`
	Content     json.RawMessage   `json:"content"`
	SharedWith  []SharedWithEntry `json:"shared_with,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUpdated time.Time         `json:"last_updated"`
}

type SharedWithEntry struct {
	UserID     string            `json:"user_id"`
	Permission domain.Permission `json:"permission"`
}

func DocumentToApi(d *domain.Document) *DocumentResponse {
	shared := make([]SharedWithEntry, 0, len(d.SharedWith))
	for _, entry := range d.SharedWith {
		shared = append(shared, SharedWithEntry{
			UserID:     entry.UserID,
			Permission: entry.Permission,
		})
	}

	return &DocumentResponse{
		ID:          d.ID,
		Title:       d.Title,
		Owner:       d.Owner,
		Content:     d.Content,
		SharedWith:  shared,
		CreatedAt:   d.CreatedAt,
		LastUpdated: d.LastUpdated,
	}
}

func DocumentsToApi(docs []*domain.Document) []*DocumentResponse {
	result := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		result = append(result, DocumentToApi(d))
	}
	return result
}
