package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// ReviewResponse is the staff reply shown under a review.
type ReviewResponse struct {
	Text        string      `bson:"text" json:"text"`
	RespondedBy utils.SixID `bson:"responded_by" json:"responded_by"`
	RespondedAt time.Time   `bson:"responded_at" json:"responded_at"`
}

// Review is a guest's rating of a hotel. A user reviews a hotel at most once.
type Review struct {
	Base         `bson:",inline"`
	UserID       utils.SixID     `bson:"user_id" json:"user_id"`
	UserName     string          `bson:"user_name" json:"user_name"`
	HotelID      utils.SixID     `bson:"hotel_id" json:"hotel_id"`
	BookingID    *utils.SixID    `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	Rating       int             `bson:"rating" json:"rating"`
	Title        string          `bson:"title" json:"title"`
	Comment      string          `bson:"comment" json:"comment"`
	VerifiedStay bool            `bson:"verified_stay" json:"verified_stay"`
	Response     *ReviewResponse `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updated_at"`
}
