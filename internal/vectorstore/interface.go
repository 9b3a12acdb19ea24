// Package vectorstore provides the similarity-store client used for
// free-text feedback and long-term memory.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrEmptyPoints indicates an upsert with no points.
	ErrEmptyPoints = errors.New("empty or nil points")
)

// Point is a vector with its payload, addressed by a 64-bit integer id.
type Point struct {
	// ID is the point identifier. Callers derive it by truncating a fresh
	// UUID to 64 bits (see NewPointID).
	ID uint64

	// Vector is the embedding for the point's text content.
	Vector []float32

	// Payload holds the structured record attached to the point.
	// Supported value types: string, int, int64, float64, bool.
	Payload map[string]interface{}
}

// ScoredPoint is a similarity match returned by Query.
type ScoredPoint struct {
	// Score is the similarity score (cosine), highest first.
	Score float32

	// Payload is the stored record for the matched point.
	Payload map[string]interface{}
}

// QueryParams bounds a similarity query.
type QueryParams struct {
	// Limit is the maximum number of matches to return.
	Limit uint64

	// ScoreThreshold drops matches scoring below it when > 0.
	ScoreThreshold float32

	// Filters are exact-match payload conditions; all must hold.
	Filters map[string]interface{}
}

// Store is the interface for similarity-store operations.
//
// Callers embed text themselves and pass raw vectors; the store owns only
// persistence and nearest-neighbor search.
type Store interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error

	// Upsert writes points into a collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Query returns matches for the vector ordered by similarity score.
	Query(ctx context.Context, collection string, vector []float32, params QueryParams) ([]ScoredPoint, error)

	// Close closes the store connection and releases resources.
	Close() error
}
