package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// Revenue is money taken minus money returned, per currency.
type Revenue struct {
	Currency string  `json:"currency" bson:"_id"`
	Gross    float64 `json:"gross" bson:"gross"`
	Refunded float64 `json:"refunded" bson:"refunded"`
	Net      float64 `json:"net" bson:"-"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	UsersByRole        map[models.Role]int64          `json:"users_by_role"`
	Hotels             int64                          `json:"hotels"`
	BookingsByStatus   map[models.BookingStatus]int64 `json:"bookings_by_status"`
	PaymentsByStatus   map[models.PaymentStatus]int64 `json:"payments_by_status"`
	Revenue            []Revenue                      `json:"revenue"`
	BookingsLast7Days  int64                          `json:"bookings_last_7_days"`
	BookingsLast30Days int64                          `json:"bookings_last_30_days"`
	OpenTickets        int64                          `json:"open_tickets"`
	PendingAdminReqs   int64                          `json:"pending_admin_requests"`
	LatestLogs         []models.SystemLog             `json:"latest_logs"`
	GeneratedAt        time.Time                      `json:"generated_at"`
}

type IDashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	db     *mongo.Database
	users  IUserService
	hotels IHotelService
	logs   ISystemLogService
}

func NewDashboardService(database *mongo.Database, users IUserService, hotels IHotelService, logs ISystemLogService) IDashboardService {
	return &dashboardService{db: database, users: users, hotels: hotels, logs: logs}
}

// countBy groups a collection by field and returns the count per value.
func countBy[K ~string](ctx context.Context, coll *mongo.Collection, field string) (map[K]int64, error) {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("error grouping %s by %s: %w", coll.Name(), field, err)
	}
	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[K]int64, len(rows))
	for _, r := range rows {
		out[K(r.Key)] = r.Count
	}
	return out, nil
}

func (s *dashboardService) revenue(ctx context.Context) ([]Revenue, error) {
	cursor, err := s.db.Collection(db.PaymentsCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": []models.PaymentStatus{
			models.PaymentStatusPaid, models.PaymentStatusPartiallyRefunded, models.PaymentStatusRefunded,
		}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$currency",
			"gross":    bson.M{"$sum": "$total"},
			"refunded": bson.M{"$sum": "$total_refunded"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("error aggregating revenue: %w", err)
	}
	rows := []Revenue{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Gross = models.RoundMoney(rows[i].Gross)
		rows[i].Refunded = models.RoundMoney(rows[i].Refunded)
		rows[i].Net = models.RoundMoney(rows[i].Gross - rows[i].Refunded)
	}
	return rows, nil
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	now := time.Now().UTC()
	stats := &DashboardStats{GeneratedAt: now}
	var err error

	if stats.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
		return nil, err
	}
	if stats.Hotels, err = s.hotels.Count(ctx); err != nil {
		return nil, err
	}
	bookings := s.db.Collection(db.BookingsCollection)
	if stats.BookingsByStatus, err = countBy[models.BookingStatus](ctx, bookings, "status"); err != nil {
		return nil, err
	}
	if stats.PaymentsByStatus, err = countBy[models.PaymentStatus](ctx, s.db.Collection(db.PaymentsCollection), "status"); err != nil {
		return nil, err
	}
	if stats.Revenue, err = s.revenue(ctx); err != nil {
		return nil, err
	}
	if stats.BookingsLast7Days, err = bookings.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": now.AddDate(0, 0, -7)}}); err != nil {
		return nil, err
	}
	if stats.BookingsLast30Days, err = bookings.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": now.AddDate(0, 0, -30)}}); err != nil {
		return nil, err
	}
	if stats.OpenTickets, err = s.db.Collection(db.SupportTicketsCollection).CountDocuments(ctx,
		bson.M{"status": bson.M{"$in": []models.TicketStatus{models.TicketStatusOpen, models.TicketStatusInProgress}}}); err != nil {
		return nil, err
	}
	if stats.PendingAdminReqs, err = s.db.Collection(db.AdminRequestsCollection).CountDocuments(ctx,
		bson.M{"status": models.AdminRequestPending, "expires_at": bson.M{"$gt": now}}); err != nil {
		return nil, err
	}
	if stats.LatestLogs, err = s.logs.Latest(ctx, 10); err != nil {
		return nil, err
	}
	return stats, nil
}
