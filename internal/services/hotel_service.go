package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/cache"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// HotelInput is the full description of a hotel on create.
type HotelInput struct {
	Name        string
	Description string
	Location    models.Location
	Images      []string
	Amenities   []string
	Rooms       []models.Room
	Status      models.HotelStatus
}

// HotelUpdate changes the non-nil fields only.
type HotelUpdate struct {
	Name        *string
	Description *string
	Location    *models.Location
	Images      []string
	Amenities   []string
	Rooms       []models.Room
	Status      *models.HotelStatus
}

// HotelSearch are the catalogue search criteria. Zero values are ignored.
type HotelSearch struct {
	Query    string
	City     string
	MinPrice float64
	MaxPrice float64
	Guests   int
}

// IHotelService manages the hotel catalogue and its availability calendar.
type IHotelService interface {
	Create(ctx context.Context, actor Actor, in HotelInput) (*models.Hotel, error)
	Update(ctx context.Context, actor Actor, hotelID utils.SixID, upd HotelUpdate) (*models.Hotel, error)
	Delete(ctx context.Context, actor Actor, hotelID utils.SixID) error
	FindByID(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error)
	GetPublic(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error)
	Search(ctx context.Context, q HotelSearch, page Page) (*PagedResult[models.Hotel], error)
	AuthorizeManage(ctx context.Context, actor Actor, hotelID utils.SixID) (*models.Hotel, error)
	GetAvailability(ctx context.Context, hotelID utils.SixID, from, to time.Time) ([]models.AvailabilityDay, error)
	CheckAvailability(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) (int, error)
	ReserveRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error
	ReleaseRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error
	EnsureCalendar(ctx context.Context, hotelID utils.SixID) error
	RollAllCalendars(ctx context.Context) (int, error)
	AddImage(ctx context.Context, hotelID utils.SixID, imageURL string) error
	UpdateRating(ctx context.Context, hotelID utils.SixID, rating float64, count int) error
	Count(ctx context.Context) (int64, error)
}

type hotelService struct {
	db    *mongo.Database
	cfg   *config.Config
	cache *cache.JSONCache[models.Hotel]
}

// NewHotelService creates a hotel service. rdb may be nil, which disables caching.
func NewHotelService(database *mongo.Database, cfg *config.Config, rdb *redis.Client) IHotelService {
	return &hotelService{db: database, cfg: cfg, cache: cache.NewJSONCache[models.Hotel](rdb, "hotel", cfg.GetCacheTTL)}
}

func (s *hotelService) coll() *mongo.Collection {
	return s.db.Collection(db.HotelsCollection)
}

func (s *hotelService) invalidate(ctx context.Context, id utils.SixID) {
	s.cache.Delete(ctx, id.String())
}

func (s *hotelService) Create(ctx context.Context, actor Actor, in HotelInput) (*models.Hotel, error) {
	now := time.Now().UTC()
	status := in.Status
	if status == "" {
		status = models.HotelStatusActive
	}
	hotel := &models.Hotel{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Location:      in.Location,
		Images:        nonNil(in.Images),
		Amenities:     nonNil(in.Amenities),
		Rooms:         in.Rooms,
		PricePerNight: models.CheapestPrice(in.Rooms),
		Availability:  models.BuildCalendar(in.Rooms, nil, now, s.cfg.AvailabilityHorizonDays),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor.Role == models.RoleHost {
		owner := actor.ID
		hotel.OwnerID = &owner
	}
	if err := db.InsertOne(ctx, s.coll(), hotel); err != nil {
		return nil, err
	}
	return hotel, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// AuthorizeManage loads a hotel the actor is allowed to change: admins any, hosts their own.
func (s *hotelService) AuthorizeManage(ctx context.Context, actor Actor, hotelID utils.SixID) (*models.Hotel, error) {
	hotel, err := s.FindByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return hotel, nil
	}
	if actor.Role == models.RoleHost && hotel.OwnerID != nil && *hotel.OwnerID == actor.ID {
		return hotel, nil
	}
	return nil, ErrForbidden
}

func (s *hotelService) Update(ctx context.Context, actor Actor, hotelID utils.SixID, upd HotelUpdate) (*models.Hotel, error) {
	if _, err := s.AuthorizeManage(ctx, actor, hotelID); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Images != nil {
		set["images"] = upd.Images
	}
	if upd.Amenities != nil {
		set["amenities"] = upd.Amenities
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Rooms != nil {
		set["rooms"] = upd.Rooms
		set["price_per_night"] = models.CheapestPrice(upd.Rooms)
	}

	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": hotelID, "deleted": false}, bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		return nil, fmt.Errorf("error updating hotel %s: %w", hotelID, err)
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	if upd.Rooms != nil {
		if err := s.EnsureCalendar(ctx, hotelID); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, hotelID)
	return s.FindByID(ctx, hotelID)
}

// Delete hides the hotel. Existing bookings keep their snapshot.
func (s *hotelService) Delete(ctx context.Context, actor Actor, hotelID utils.SixID) error {
	if _, err := s.AuthorizeManage(ctx, actor, hotelID); err != nil {
		return err
	}
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": hotelID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "status": models.HotelStatusInactive, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error deleting hotel %s: %w", hotelID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.invalidate(ctx, hotelID)
	return nil
}

func (s *hotelService) FindByID(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error) {
	var hotel models.Hotel
	err := s.coll().FindOne(ctx, bson.M{"_id": hotelID, "deleted": false}).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding hotel %s: %w", hotelID, err)
	}
	return &hotel, nil
}

// GetPublic returns the hotel without its calendar, served from Redis when cached.
func (s *hotelService) GetPublic(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error) {
	if cached, ok := s.cache.Get(ctx, hotelID.String()); ok {
		return cached, nil
	}

	var hotel models.Hotel
	err := s.coll().FindOne(ctx, bson.M{"_id": hotelID, "deleted": false},
		options.FindOne().SetProjection(bson.M{"availability": 0})).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding hotel %s: %w", hotelID, err)
	}

	s.cache.Set(ctx, hotelID.String(), &hotel)
	return &hotel, nil
}

func (s *hotelService) Search(ctx context.Context, q HotelSearch, page Page) (*PagedResult[models.Hotel], error) {
	filter := bson.M{"deleted": false, "status": models.HotelStatusActive}
	if q.Query != "" {
		filter["$text"] = bson.M{"$search": q.Query}
	}
	if q.City != "" {
		filter["location.city"] = bson.M{"$regex": "^" + regexpQuote(q.City) + "$", "$options": "i"}
	}
	price := bson.M{}
	if q.MinPrice > 0 {
		price["$gte"] = q.MinPrice
	}
	if q.MaxPrice > 0 {
		price["$lte"] = q.MaxPrice
	}
	if len(price) > 0 {
		filter["price_per_night"] = price
	}
	if q.Guests > 0 {
		filter["rooms.capacity"] = bson.M{"$gte": q.Guests}
	}
	sort := bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}
	return findPage[models.Hotel](ctx, s.coll(), filter, sort, page, bson.M{"availability": 0})
}

func (s *hotelService) GetAvailability(ctx context.Context, hotelID utils.SixID, from, to time.Time) ([]models.AvailabilityDay, error) {
	hotel, err := s.FindByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	from, to = models.TruncateDay(from), models.TruncateDay(to)
	days := []models.AvailabilityDay{}
	for _, d := range hotel.Availability {
		if !d.Date.Before(from) && d.Date.Before(to) {
			days = append(days, d)
		}
	}
	return days, nil
}

// CheckAvailability returns the lowest free count of roomType over the stay.
func (s *hotelService) CheckAvailability(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) (int, error) {
	nights := models.StayNights(checkIn, checkOut)
	if len(nights) == 0 {
		return 0, ErrInvalidDates
	}
	hotel, err := s.FindByID(ctx, hotelID)
	if err != nil {
		return 0, err
	}
	if _, ok := hotel.RoomByType(roomType); !ok {
		return 0, fmt.Errorf("hotel has no %q rooms: %w", roomType, ErrRoomUnavailable)
	}
	return minAvailable(hotel.Availability, roomType, nights)
}

func minAvailable(calendar []models.AvailabilityDay, roomType string, nights []time.Time) (int, error) {
	byDate := make(map[time.Time]models.AvailabilityDay, len(calendar))
	for _, d := range calendar {
		byDate[models.TruncateDay(d.Date)] = d
	}
	lowest := -1
	for _, n := range nights {
		day, ok := byDate[n]
		if !ok {
			return 0, ErrOutsideCalendar
		}
		free := 0
		for _, rc := range day.Rooms {
			if rc.Type == roomType {
				free = rc.Available
			}
		}
		if lowest < 0 || free < lowest {
			lowest = free
		}
	}
	return lowest, nil
}

// ReserveRooms takes rooms of roomType for every night of the stay in one
// conditional update: it matches only if each night still has enough free rooms.
func (s *hotelService) ReserveRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error {
	nights := models.StayNights(checkIn, checkOut)
	if len(nights) == 0 {
		return ErrInvalidDates
	}
	if rooms < 1 {
		rooms = 1
	}

	conditions := make(bson.A, 0, len(nights))
	for _, n := range nights {
		conditions = append(conditions, bson.M{"$elemMatch": bson.M{
			"date":  n,
			"rooms": bson.M{"$elemMatch": bson.M{"type": roomType, "available": bson.M{"$gte": rooms}}},
		}})
	}
	filter := bson.M{"_id": hotelID, "deleted": false, "availability": bson.M{"$all": conditions}}
	update := bson.M{
		"$inc": bson.M{
			"availability.$[d].rooms.$[r].booked":    rooms,
			"availability.$[d].rooms.$[r].available": -rooms,
			"version":                                1,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.Update().SetArrayFilters(stayArrayFilters(nights, roomType, nil))

	res, err := s.coll().UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("error reserving rooms at hotel %s: %w", hotelID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Work out why nothing matched.
	free, err := s.CheckAvailability(ctx, hotelID, roomType, checkIn, checkOut, rooms)
	if err != nil {
		return err
	}
	if free < rooms {
		return ErrRoomUnavailable
	}
	return fmt.Errorf("reservation at hotel %s lost a race: %w", hotelID, ErrRoomUnavailable)
}

// ReleaseRooms gives rooms back for the nights still on the calendar.
func (s *hotelService) ReleaseRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error {
	nights := models.StayNights(checkIn, checkOut)
	if len(nights) == 0 {
		return ErrInvalidDates
	}
	if rooms < 1 {
		rooms = 1
	}
	update := bson.M{
		"$inc": bson.M{
			"availability.$[d].rooms.$[r].booked":    -rooms,
			"availability.$[d].rooms.$[r].available": rooms,
			"version":                                1,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.Update().SetArrayFilters(stayArrayFilters(nights, roomType, &rooms))
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": hotelID}, update, opts)
	if err != nil {
		return fmt.Errorf("error releasing rooms at hotel %s: %w", hotelID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// stayArrayFilters selects the calendar days of the stay and the room type entry.
// With minBooked set, only entries holding at least that many bookings are touched.
func stayArrayFilters(nights []time.Time, roomType string, minBooked *int) options.ArrayFilters {
	room := bson.M{"r.type": roomType}
	if minBooked != nil {
		room["r.booked"] = bson.M{"$gte": *minBooked}
	}
	return options.ArrayFilters{Filters: []interface{}{
		bson.M{"d.date": bson.M{"$gte": nights[0], "$lte": nights[len(nights)-1]}},
		room,
	}}
}

// EnsureCalendar rebuilds the calendar from today over the configured horizon,
// keeping booked counts. Past days drop off and new days are appended.
func (s *hotelService) EnsureCalendar(ctx context.Context, hotelID utils.SixID) error {
	return db.TryVersioned(func() error {
		hotel, err := s.FindByID(ctx, hotelID)
		if err != nil {
			return err
		}
		calendar := models.BuildCalendar(hotel.Rooms, hotel.Availability, time.Now(), s.cfg.AvailabilityHorizonDays)
		res, err := s.coll().UpdateOne(ctx,
			bson.M{"_id": hotelID, "version": hotel.Version},
			bson.M{"$set": bson.M{"availability": calendar, "updated_at": time.Now().UTC()}, "$inc": bson.M{"version": 1}},
		)
		if err != nil {
			return fmt.Errorf("error updating calendar of hotel %s: %w", hotelID, err)
		}
		if res.MatchedCount == 0 {
			return ErrVersionConflict
		}
		return nil
	})
}

// RollAllCalendars runs EnsureCalendar for every hotel and returns how many were updated.
func (s *hotelService) RollAllCalendars(ctx context.Context) (int, error) {
	cursor, err := s.coll().Find(ctx, bson.M{"deleted": false}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("error listing hotels for calendar roll: %w", err)
	}
	var ids []models.Base
	if err := cursor.All(ctx, &ids); err != nil {
		return 0, fmt.Errorf("error decoding hotel ids: %w", err)
	}
	rolled := 0
	for _, b := range ids {
		if err := s.EnsureCalendar(ctx, b.ID); err != nil {
			log.Printf("Error rolling calendar of hotel %s: %v", b.ID, err)
			continue
		}
		rolled++
	}
	return rolled, nil
}

func (s *hotelService) AddImage(ctx context.Context, hotelID utils.SixID, imageURL string) error {
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": hotelID, "deleted": false},
		bson.M{"$addToSet": bson.M{"images": imageURL}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error adding image to hotel %s: %w", hotelID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.invalidate(ctx, hotelID)
	return nil
}

func (s *hotelService) UpdateRating(ctx context.Context, hotelID utils.SixID, rating float64, count int) error {
	_, err := s.coll().UpdateOne(ctx, bson.M{"_id": hotelID},
		bson.M{"$set": bson.M{"rating": rating, "review_count": count, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error updating rating of hotel %s: %w", hotelID, err)
	}
	s.invalidate(ctx, hotelID)
	return nil
}

func (s *hotelService) Count(ctx context.Context) (int64, error) {
	return s.coll().CountDocuments(ctx, bson.M{"deleted": false})
}
