package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// ReviewInput is a new review of a hotel.
type ReviewInput struct {
	HotelID utils.SixID
	Rating  int
	Title   string
	Comment string
}

// IReviewService manages hotel reviews and keeps hotel ratings in step with them.
type IReviewService interface {
	Create(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error)
	ListForHotel(ctx context.Context, hotelID utils.SixID, page Page) (*PagedResult[models.Review], error)
	Delete(ctx context.Context, actor Actor, reviewID utils.SixID) error
	Respond(ctx context.Context, adminID, reviewID utils.SixID, text string) (*models.Review, error)
	RecomputeRating(ctx context.Context, hotelID utils.SixID) error
}

type reviewService struct {
	db       *mongo.Database
	users    IUserService
	hotels   IHotelService
	bookings IBookingService
}

func NewReviewService(database *mongo.Database, users IUserService, hotels IHotelService, bookings IBookingService) IReviewService {
	return &reviewService{db: database, users: users, hotels: hotels, bookings: bookings}
}

func (s *reviewService) coll() *mongo.Collection {
	return s.db.Collection(db.ReviewsCollection)
}

// Create stores the caller's review. The review is marked as a verified stay when the
// caller has a confirmed or completed booking at the hotel.
func (s *reviewService) Create(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.hotels.FindByID(ctx, in.HotelID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &models.Review{
		UserID:    actor.ID,
		UserName:  user.Name,
		HotelID:   in.HotelID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stay, err := s.bookings.FindStay(ctx, actor.ID, in.HotelID)
	switch {
	case err == nil:
		review.VerifiedStay = true
		review.BookingID = &stay.ID
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	review.GenID()
	if _, err := s.coll().InsertOne(ctx, review); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	if err := s.RecomputeRating(ctx, in.HotelID); err != nil {
		log.Printf("Error recomputing rating of hotel %s: %v", in.HotelID, err)
	}
	return review, nil
}

func (s *reviewService) ListForHotel(ctx context.Context, hotelID utils.SixID, page Page) (*PagedResult[models.Review], error) {
	return findPage[models.Review](ctx, s.coll(), bson.M{"hotel_id": hotelID}, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

func (s *reviewService) findByID(ctx context.Context, reviewID utils.SixID) (*models.Review, error) {
	var review models.Review
	if err := s.coll().FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding review %s: %w", reviewID, err)
	}
	return &review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor Actor, reviewID utils.SixID) error {
	review, err := s.findByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if !actor.CanManage(review.UserID) {
		return ErrForbidden
	}
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": reviewID})
	if err != nil {
		return fmt.Errorf("error deleting review %s: %w", reviewID, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if err := s.RecomputeRating(ctx, review.HotelID); err != nil {
		log.Printf("Error recomputing rating of hotel %s: %v", review.HotelID, err)
	}
	return nil
}

func (s *reviewService) Respond(ctx context.Context, adminID, reviewID utils.SixID, text string) (*models.Review, error) {
	now := time.Now().UTC()
	var review models.Review
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$set": bson.M{
			"response":   models.ReviewResponse{Text: strings.TrimSpace(text), RespondedBy: adminID, RespondedAt: now},
			"updated_at": now,
		}},
		returnAfter(),
	).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error responding to review %s: %w", reviewID, err)
	}
	return &review, nil
}

// RecomputeRating sets the hotel's rating to the mean of its reviews, rounded to one decimal.
func (s *reviewService) RecomputeRating(ctx context.Context, hotelID utils.SixID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"hotel_id": hotelID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$rating"}, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("error aggregating reviews of hotel %s: %w", hotelID, err)
	}
	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("error decoding review aggregate: %w", err)
	}
	rating, count := 0.0, 0
	if len(rows) > 0 {
		rating = math.Round(rows[0].Avg*10) / 10
		count = rows[0].Count
	}
	return s.hotels.UpdateRating(ctx, hotelID, rating, count)
}
