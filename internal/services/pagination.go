package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a slice of a sorted result set. Page numbers start at 1.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps page and limit to sane values.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) findOptions(sort bson.D) *options.FindOptions {
	p = p.Normalize()
	return options.Find().
		SetSort(sort).
		SetSkip(int64((p.Page - 1) * p.Limit)).
		SetLimit(int64(p.Limit))
}

// PagedResult is one page of items plus the total match count.
type PagedResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newPagedResult[T any](items []T, total int64, p Page) *PagedResult[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return &PagedResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// findPage runs filter against coll and decodes one page of results.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D, p Page, projection interface{}) (*PagedResult[T], error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", coll.Name(), err)
	}
	opts := p.findOptions(sort)
	if projection != nil {
		opts.SetProjection(projection)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	var items []T
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return newPagedResult(items, total, p), nil
}
