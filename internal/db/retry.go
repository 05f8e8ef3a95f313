package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// RetryPredicate decides whether a failed operation is worth another attempt.
type RetryPredicate func(err error) bool

const DefaultMaxRetries = 3

// ErrVersionConflict is returned by optimistic updates that lost a race.
var ErrVersionConflict = errors.New("document was modified concurrently")

// Try runs op, retrying on duplicate key errors (e.g. a colliding generated _id).
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsMongoDuplicateKeyError)
}

// TryVersioned runs op, retrying when it reports ErrVersionConflict.
// op is expected to re-read the document on every attempt.
func TryVersioned(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsVersionConflict)
}

// WithRetries runs op once plus up to maxRetries more times while shouldRetry
// accepts the error, with a small incremental backoff.
func WithRetries(op Operation, maxRetries int, shouldRetry RetryPredicate) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == maxRetries || !shouldRetry(err) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}

// IsVersionConflict reports whether err is (or wraps) ErrVersionConflict.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// Identifiable is any document that can (re)generate its own ID.
type Identifiable interface {
	GenID()
}

// InsertOne assigns a fresh ID to doc and inserts it, regenerating the ID on collision.
func InsertOne(ctx context.Context, coll *mongo.Collection, doc Identifiable) error {
	err := Try(func() error {
		doc.GenID()
		_, err := coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}
