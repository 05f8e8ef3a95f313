package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// Well-known setting keys.
const (
	SettingAppName         = "APP_NAME"
	SettingDefaultCurrency = "DEFAULT_CURRENCY"
	SettingTaxRate         = "TAX_RATE"
	SettingInvoiceDueDays  = "INVOICE_DUE_DAYS"
	SettingBookingsEnabled = "BOOKINGS_ENABLED"
	settingsUpdateChannel  = "settings_updates"
)

// ISettingsService gives access to runtime-tunable settings.
type ISettingsService interface {
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
	GetAllPublic(ctx context.Context) (map[string]interface{}, error)
	List(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (interface{}, error)
	GetInt(ctx context.Context, key string, defaultValue int) int
	GetString(ctx context.Context, key string, defaultValue string) string
	GetBool(ctx context.Context, key string, defaultValue bool) bool
	GetFloat64(ctx context.Context, key string, defaultValue float64) float64
	GetDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration
	Set(ctx context.Context, key string, value interface{}, isPublic bool) (*models.Setting, error)
	GetEndpointRateLimit(ctx context.Context, method, endpoint string) *models.RateLimitConfig
}

type settingsService struct {
	db        *mongo.Database
	cfg       *config.Config
	rdb       *redis.Client
	cache     map[string]interface{}
	rateCache map[string]*models.RateLimitConfig
	mutex     sync.RWMutex
}

// NewSettingsService loads the settings cache and, when Redis is available,
// starts listening for reload notifications.
func NewSettingsService(database *mongo.Database, cfg *config.Config, rdb *redis.Client) ISettingsService {
	s := &settingsService{
		db:        database,
		cfg:       cfg,
		rdb:       rdb,
		cache:     make(map[string]interface{}),
		rateCache: make(map[string]*models.RateLimitConfig),
	}
	if err := s.Load(context.Background()); err != nil {
		log.Printf("WARNING: Failed to load settings from DB: %v. Using defaults from .env", err)
	}
	if rdb != nil {
		go func() {
			if err := s.SubscribeToChanges(context.Background()); err != nil {
				log.Printf("CRITICAL: Settings Pub/Sub listener stopped: %v", err)
			}
		}()
	}
	return s
}

func rateLimitKey(method, endpoint string) string {
	return method + " " + endpoint
}

// Load replaces the in-memory caches with the current database contents.
func (s *settingsService) Load(ctx context.Context) error {
	cursor, err := s.db.Collection(db.SettingsCollection).Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query settings: %w", err)
	}
	var settings []models.Setting
	if err := cursor.All(ctx, &settings); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	newCache := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		newCache[st.Key] = st.Value
	}

	newRateCache := make(map[string]*models.RateLimitConfig)
	apiCursor, err := s.db.Collection(db.APIConfigCollection).Find(ctx, bson.M{})
	if err != nil {
		log.Printf("Error querying API endpoint configs: %v", err)
	} else {
		var endpoints []models.APIEndpointConfig
		if err := apiCursor.All(ctx, &endpoints); err != nil {
			log.Printf("Error decoding API endpoint configs: %v", err)
		}
		for _, e := range endpoints {
			if e.RateLimit != nil {
				newRateCache[rateLimitKey(e.Method, e.Endpoint)] = e.RateLimit
			}
		}
	}

	s.mutex.Lock()
	s.cache = newCache
	s.rateCache = newRateCache
	s.mutex.Unlock()

	log.Printf("Loaded %d settings and %d endpoint rate limits into cache.", len(newCache), len(newRateCache))
	return nil
}

func (s *settingsService) defaults() map[string]interface{} {
	return map[string]interface{}{
		SettingAppName:         s.cfg.AppName,
		SettingDefaultCurrency: s.cfg.DefaultCurrency,
		SettingTaxRate:         s.cfg.TaxRate,
		SettingInvoiceDueDays:  s.cfg.InvoiceDueDays,
	}
}

// GetAllPublic returns the public settings, filling in the public defaults.
func (s *settingsService) GetAllPublic(ctx context.Context) (map[string]interface{}, error) {
	cursor, err := s.db.Collection(db.SettingsCollection).Find(ctx, bson.M{"public": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query public settings: %w", err)
	}
	var settings []models.Setting
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode public settings: %w", err)
	}

	public := make(map[string]interface{}, len(settings)+3)
	for _, key := range []string{SettingAppName, SettingDefaultCurrency, SettingTaxRate} {
		public[key] = s.defaults()[key]
	}
	for _, st := range settings {
		public[st.Key] = st.Value
	}
	return public, nil
}

func (s *settingsService) List(ctx context.Context) ([]models.Setting, error) {
	cursor, err := s.db.Collection(db.SettingsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	settings := []models.Setting{}
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

// Get returns a cached value, falling back to the environment defaults.
func (s *settingsService) Get(ctx context.Context, key string) (interface{}, error) {
	s.mutex.RLock()
	val, exists := s.cache[key]
	s.mutex.RUnlock()
	if exists {
		return val, nil
	}
	if def, ok := s.defaults()[key]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("setting '%s' not found", key)
}

func (s *settingsService) GetString(ctx context.Context, key string, defaultValue string) string {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	log.Printf("Warning: Setting '%s' is not a string, using default.", key)
	return defaultValue
}

func (s *settingsService) GetInt(ctx context.Context, key string, defaultValue int) int {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	if f, ok := toFloat64(val); ok {
		return int(f)
	}
	log.Printf("Warning: Setting '%s' is not an integer type (%T), using default.", key, val)
	return defaultValue
}

func (s *settingsService) GetBool(ctx context.Context, key string, defaultValue bool) bool {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	if b, ok := val.(bool); ok {
		return b
	}
	log.Printf("Warning: Setting '%s' is not a boolean, using default.", key)
	return defaultValue
}

func (s *settingsService) GetFloat64(ctx context.Context, key string, defaultValue float64) float64 {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	if f, ok := toFloat64(val); ok {
		return f
	}
	log.Printf("Warning: Setting '%s' is not a numeric type (%T), using default.", key, val)
	return defaultValue
}

// GetDuration reads a value stored as seconds.
func (s *settingsService) GetDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	val, err := s.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	if f, ok := toFloat64(val); ok {
		return time.Duration(f * float64(time.Second))
	}
	log.Printf("Warning: Setting '%s' is not a numeric type for duration (%T), using default.", key, val)
	return defaultValue
}

func toFloat64(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// SubscribeToChanges reloads the cache whenever a key is published on the settings channel.
func (s *settingsService) SubscribeToChanges(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	pubsub := s.rdb.Subscribe(ctx, settingsUpdateChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", settingsUpdateChannel, err)
	}
	log.Println("Subscribed to Redis channel for settings updates:", settingsUpdateChannel)

	for msg := range pubsub.Channel() {
		log.Printf("Received settings update notification: %s", msg.Payload)
		if err := s.Load(context.Background()); err != nil {
			log.Printf("ERROR reloading settings after notification: %v", err)
		}
	}
	return nil
}

// Set upserts a setting, updates the local cache and notifies other instances.
func (s *settingsService) Set(ctx context.Context, key string, value interface{}, isPublic bool) (*models.Setting, error) {
	if key == "" {
		return nil, errors.New("setting key is required")
	}
	setting := &models.Setting{Key: key, Value: value, Public: isPublic, UpdatedAt: time.Now().UTC()}
	_, err := s.db.Collection(db.SettingsCollection).UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": setting},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert setting '%s': %w", key, err)
	}

	s.mutex.Lock()
	s.cache[key] = value
	s.mutex.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, settingsUpdateChannel, key).Err(); err != nil {
			log.Printf("Warning: Failed to publish settings update for key '%s': %v", key, err)
		}
	}
	return setting, nil
}

// GetEndpointRateLimit returns the override for a route, or nil to use the defaults.
func (s *settingsService) GetEndpointRateLimit(ctx context.Context, method, endpoint string) *models.RateLimitConfig {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.rateCache[rateLimitKey(method, endpoint)]
}
