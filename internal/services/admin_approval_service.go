package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// IAdminApprovalService owns the single path through which a user becomes admin,
// whether the decision comes from the e-mailed link or the admin dashboard.
type IAdminApprovalService interface {
	RequestAdminAccess(ctx context.Context, userID utils.SixID, reason string) (*models.AdminRequest, error)
	DecideAdminRequest(ctx context.Context, requestID utils.SixID, approve bool, decidedBy *utils.SixID) (*models.AdminRequest, error)
	DecideByToken(ctx context.Context, token string, approve bool) (*models.AdminRequest, error)
	FindByID(ctx context.Context, requestID utils.SixID) (*models.AdminRequest, error)
	List(ctx context.Context, status models.AdminRequestStatus, page Page) (*PagedResult[models.AdminRequest], error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type adminApprovalService struct {
	db          *mongo.Database
	cfg         *config.Config
	userService IUserService
}

func NewAdminApprovalService(database *mongo.Database, cfg *config.Config, userService IUserService) IAdminApprovalService {
	return &adminApprovalService{db: database, cfg: cfg, userService: userService}
}

func (s *adminApprovalService) coll() *mongo.Collection {
	return s.db.Collection(db.AdminRequestsCollection)
}

// VerificationTokenBytes is the entropy of an approval link token.
const VerificationTokenBytes = 32

// IsVerificationToken reports whether s has the shape of a token issued by newVerificationToken.
func IsVerificationToken(s string) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(VerificationTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

func newVerificationToken() (string, error) {
	buf := make([]byte, VerificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RequestAdminAccess records a pending request. A user who already has a live
// pending request gets that one back instead of a new one.
func (s *adminApprovalService) RequestAdminAccess(ctx context.Context, userID utils.SixID, reason string) (*models.AdminRequest, error) {
	user, err := s.userService.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, fmt.Errorf("user is already an admin: %w", ErrInvalidTransition)
	}

	now := time.Now().UTC()
	var existing models.AdminRequest
	err = s.coll().FindOne(ctx, bson.M{
		"user_id":    userID,
		"status":     models.AdminRequestPending,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error looking up pending admin request for %s: %w", userID, err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, err
	}
	req := &models.AdminRequest{
		Token:     token,
		UserID:    userID,
		Email:     user.Email,
		Name:      user.Name,
		Reason:    reason,
		Status:    models.AdminRequestPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.AdminRequestTTL),
	}
	if err := db.InsertOne(ctx, s.coll(), req); err != nil {
		return nil, err
	}
	if err := s.userService.SetAdminRequested(ctx, userID, true); err != nil {
		return nil, err
	}
	return req, nil
}

// DecideAdminRequest flips a pending, unexpired request from the admin dashboard.
// Only one decision can win.
func (s *adminApprovalService) DecideAdminRequest(ctx context.Context, requestID utils.SixID, approve bool, decidedBy *utils.SixID) (*models.AdminRequest, error) {
	return s.decide(ctx, bson.M{"_id": requestID}, requestID.String(), approve, decidedBy)
}

// DecideByToken applies the decision carried by the e-mailed link. Only the token
// from the link identifies the request; its ID does not.
func (s *adminApprovalService) DecideByToken(ctx context.Context, token string, approve bool) (*models.AdminRequest, error) {
	if !IsVerificationToken(token) {
		return nil, mongo.ErrNoDocuments
	}
	return s.decide(ctx, bson.M{"token": token}, "by token", approve, nil)
}

func (s *adminApprovalService) decide(ctx context.Context, match bson.M, label string, approve bool, decidedBy *utils.SixID) (*models.AdminRequest, error) {
	now := time.Now().UTC()
	status := models.AdminRequestRejected
	if approve {
		status = models.AdminRequestApproved
	}
	set := bson.M{"status": status, "decided_at": now}
	if decidedBy != nil {
		set["decided_by"] = *decidedBy
	}

	filter := bson.M{"status": models.AdminRequestPending, "expires_at": bson.M{"$gt": now}}
	for k, v := range match {
		filter[k] = v
	}

	var req models.AdminRequest
	err := s.coll().FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, countErr := s.coll().CountDocuments(ctx, match)
			if countErr != nil {
				return nil, fmt.Errorf("error looking up admin request %s: %w", label, countErr)
			}
			if n == 0 {
				return nil, mongo.ErrNoDocuments
			}
			return nil, ErrRequestExpired
		}
		return nil, fmt.Errorf("error deciding admin request %s: %w", label, err)
	}

	if approve {
		if _, err := s.userService.SetRole(ctx, req.UserID, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("request %s approved but role update failed: %w", req.ID, err)
		}
	} else if err := s.userService.SetAdminRequested(ctx, req.UserID, false); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *adminApprovalService) FindByID(ctx context.Context, requestID utils.SixID) (*models.AdminRequest, error) {
	var req models.AdminRequest
	if err := s.coll().FindOne(ctx, bson.M{"_id": requestID}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding admin request %s: %w", requestID, err)
	}
	return &req, nil
}

func (s *adminApprovalService) List(ctx context.Context, status models.AdminRequestStatus, page Page) (*PagedResult[models.AdminRequest], error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.AdminRequest](ctx, s.coll(), filter, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

// PurgeExpired removes pending requests past their expiry and clears the user flag.
// The TTL index does the same eventually; this keeps the user flag in step.
func (s *adminApprovalService) PurgeExpired(ctx context.Context) (int64, error) {
	filter := bson.M{"status": models.AdminRequestPending, "expires_at": bson.M{"$lte": time.Now().UTC()}}
	cursor, err := s.coll().Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error finding expired admin requests: %w", err)
	}
	var expired []models.AdminRequest
	if err := cursor.All(ctx, &expired); err != nil {
		return 0, fmt.Errorf("error decoding expired admin requests: %w", err)
	}
	var purged int64
	for _, req := range expired {
		res, err := s.coll().DeleteOne(ctx, bson.M{"_id": req.ID, "status": models.AdminRequestPending})
		if err != nil {
			return purged, fmt.Errorf("error deleting admin request %s: %w", req.ID, err)
		}
		if res.DeletedCount == 1 {
			purged++
			if err := s.userService.SetAdminRequested(ctx, req.UserID, false); err != nil {
				log.Printf("Error clearing admin request flag for user %s: %v", req.UserID, err)
			}
		}
	}
	return purged, nil
}
