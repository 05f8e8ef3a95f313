package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// HotelStatus controls whether a hotel is listed in search results.
type HotelStatus string

const (
	HotelStatusActive   HotelStatus = "active"
	HotelStatusInactive HotelStatus = "inactive"
)

// Location is a postal address of a hotel.
type Location struct {
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// String renders "City, Country" for snapshots and e-mails.
func (l Location) String() string {
	if l.Country == "" {
		return l.City
	}
	if l.City == "" {
		return l.Country
	}
	return l.City + ", " + l.Country
}

// Room describes one room type offered by a hotel.
type Room struct {
	Type      string   `bson:"type" json:"type" binding:"required"`
	Capacity  int      `bson:"capacity" json:"capacity" binding:"required,min=1"`
	Price     float64  `bson:"price" json:"price" binding:"required,gt=0"`
	Count     int      `bson:"count" json:"count" binding:"required,min=1"`
	Amenities []string `bson:"amenities,omitempty" json:"amenities,omitempty"`
}

// RoomTypeCount is the inventory of one room type on one night.
type RoomTypeCount struct {
	Type      string `bson:"type" json:"type"`
	Total     int    `bson:"total" json:"total"`
	Booked    int    `bson:"booked" json:"booked"`
	Available int    `bson:"available" json:"available"`
}

// AvailabilityDay is one night of the calendar, keyed by its UTC midnight.
type AvailabilityDay struct {
	Date  time.Time       `bson:"date" json:"date"`
	Rooms []RoomTypeCount `bson:"rooms" json:"rooms"`
}

// Hotel is a bookable property with its room inventory calendar.
type Hotel struct {
	Base          `bson:",inline"`
	Name          string            `bson:"name" json:"name"`
	Description   string            `bson:"description" json:"description"`
	Location      Location          `bson:"location" json:"location"`
	Images        []string          `bson:"images" json:"images"`
	Amenities     []string          `bson:"amenities" json:"amenities"`
	Rating        float64           `bson:"rating" json:"rating"`
	ReviewCount   int               `bson:"review_count" json:"review_count"`
	PricePerNight float64           `bson:"price_per_night" json:"price_per_night"`
	Rooms         []Room            `bson:"rooms" json:"rooms"`
	Availability  []AvailabilityDay `bson:"availability" json:"availability,omitempty"`
	OwnerID       *utils.SixID      `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Status        HotelStatus       `bson:"status" json:"status"`
	Version       int64             `bson:"version" json:"-"`
	Deleted       bool              `bson:"deleted" json:"-"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
}

// RoomByType returns the room definition for roomType, if any.
func (h *Hotel) RoomByType(roomType string) (*Room, bool) {
	for i := range h.Rooms {
		if h.Rooms[i].Type == roomType {
			return &h.Rooms[i], true
		}
	}
	return nil, false
}

// CheapestPrice returns the lowest nightly room price, or 0 without rooms.
func CheapestPrice(rooms []Room) float64 {
	cheapest := 0.0
	for i, r := range rooms {
		if i == 0 || r.Price < cheapest {
			cheapest = r.Price
		}
	}
	return cheapest
}

// Snapshot returns the denormalised copy embedded into bookings.
func (h *Hotel) Snapshot() HotelSnapshot {
	s := HotelSnapshot{ID: h.ID, Name: h.Name, Location: h.Location.String()}
	if len(h.Images) > 0 {
		s.Image = h.Images[0]
	}
	return s
}

// TruncateDay returns t's UTC midnight.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayNights returns the UTC midnights of every night in [checkIn, checkOut).
func StayNights(checkIn, checkOut time.Time) []time.Time {
	start := TruncateDay(checkIn)
	end := TruncateDay(checkOut)
	var nights []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// BuildCalendar returns days [from, from+days) for the given rooms, carrying over
// booked counts from existing where the day and room type match. Availability never
// drops below zero when a room count shrinks under existing bookings.
func BuildCalendar(rooms []Room, existing []AvailabilityDay, from time.Time, days int) []AvailabilityDay {
	booked := make(map[time.Time]map[string]int, len(existing))
	for _, day := range existing {
		m := make(map[string]int, len(day.Rooms))
		for _, rc := range day.Rooms {
			m[rc.Type] = rc.Booked
		}
		booked[TruncateDay(day.Date)] = m
	}

	start := TruncateDay(from)
	calendar := make([]AvailabilityDay, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		day := AvailabilityDay{Date: date, Rooms: make([]RoomTypeCount, 0, len(rooms))}
		for _, r := range rooms {
			b := booked[date][r.Type]
			avail := r.Count - b
			if avail < 0 {
				avail = 0
			}
			day.Rooms = append(day.Rooms, RoomTypeCount{Type: r.Type, Total: r.Count, Booked: b, Available: avail})
		}
		calendar = append(calendar, day)
	}
	return calendar
}
