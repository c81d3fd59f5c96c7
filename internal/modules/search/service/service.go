package service

import (
	"encoding/json"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"noria.fr/campusnet/internal/entity"
)

const (
	IndexPosts       = "posts"
	IndexCommunities = "communities"
)

// SearchService mirrors entities into Meilisearch. A nil client turns every
// method into a no-op so the app runs fine without a search backend.
type SearchService interface {
	IndexPost(post *entity.Post) error
	IndexCommunity(community *entity.Community) error
	DeletePost(id string) error
	Search(index, query string, limit int64) ([]map[string]interface{}, error)
}

type searchService struct {
	client meilisearch.ServiceManager
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	return &searchService{client: client}
}

func (s *searchService) IndexPost(post *entity.Post) error {
	if s.client == nil {
		return nil
	}
	doc := map[string]interface{}{
		"id":         post.ID.String(),
		"title":      post.Title,
		"content":    post.Content,
		"created_at": post.CreatedAt.Unix(),
	}
	if post.CommunityID != nil {
		doc["community_id"] = post.CommunityID.String()
	}
	_, err := s.client.Index(IndexPosts).AddDocuments([]map[string]interface{}{doc}, nil)
	if err != nil {
		zap.L().Warn("failed to index post", zap.String("post_id", post.ID.String()), zap.Error(err))
	}
	return err
}

func (s *searchService) IndexCommunity(community *entity.Community) error {
	if s.client == nil {
		return nil
	}
	doc := map[string]interface{}{
		"id":   community.ID.String(),
		"name": community.Name,
		"slug": community.Slug,
	}
	if community.Description != nil {
		doc["description"] = *community.Description
	}
	_, err := s.client.Index(IndexCommunities).AddDocuments([]map[string]interface{}{doc}, nil)
	if err != nil {
		zap.L().Warn("failed to index community", zap.String("community_id", community.ID.String()), zap.Error(err))
	}
	return err
}

func (s *searchService) DeletePost(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(IndexPosts).DeleteDocument(id)
	return err
}

func (s *searchService) Search(index, query string, limit int64) ([]map[string]interface{}, error) {
	if s.client == nil {
		return []map[string]interface{}{}, nil
	}

	resp, err := s.client.Index(index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	var results []map[string]interface{}
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, err
	}
	return results, nil
}
