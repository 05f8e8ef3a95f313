package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// SystemLogFilter narrows the admin log list.
type SystemLogFilter struct {
	Level    models.LogLevel
	Category models.LogCategory
	Since    *time.Time
}

type ISystemLogService interface {
	// Record stores an entry. Failures are logged and never returned.
	Record(ctx context.Context, entry *models.SystemLog)
	List(ctx context.Context, filter SystemLogFilter, page Page) (*PagedResult[models.SystemLog], error)
	Latest(ctx context.Context, n int) ([]models.SystemLog, error)
}

type systemLogService struct {
	db *mongo.Database
}

func NewSystemLogService(database *mongo.Database) ISystemLogService {
	return &systemLogService{db: database}
}

func (s *systemLogService) coll() *mongo.Collection {
	return s.db.Collection(db.SystemLogsCollection)
}

func (s *systemLogService) Record(ctx context.Context, entry *models.SystemLog) {
	if entry.Level == "" {
		entry.Level = models.LogLevelInfo
	}
	if entry.Category == "" {
		entry.Category = models.LogCategorySystem
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := db.InsertOne(ctx, s.coll(), entry); err != nil {
		log.Printf("Error recording system log %q: %v", entry.Message, err)
	}
}

func (s *systemLogService) List(ctx context.Context, filter SystemLogFilter, page Page) (*PagedResult[models.SystemLog], error) {
	q := bson.M{}
	if filter.Level != "" {
		q["level"] = filter.Level
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.Since != nil {
		q["created_at"] = bson.M{"$gte": *filter.Since}
	}
	return findPage[models.SystemLog](ctx, s.coll(), q, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

func (s *systemLogService) Latest(ctx context.Context, n int) ([]models.SystemLog, error) {
	cursor, err := s.coll().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(n)))
	if err != nil {
		return nil, err
	}
	logs := []models.SystemLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
