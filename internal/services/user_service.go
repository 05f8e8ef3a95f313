package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/auth"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// ProfileUpdate holds the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name                    *string
	Phone                   *string
	NotificationPreferences *models.NotificationPreferences
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role      models.Role
	Suspended *bool
	Search    string
}

// IUserService defines the interface for user-related operations.
type IUserService interface {
	Register(ctx context.Context, name, email, password, phone string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID utils.SixID, upd ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID utils.SixID, currentPassword, newPassword string) error
	List(ctx context.Context, filter UserFilter, page Page) (*PagedResult[models.User], error)
	SetRole(ctx context.Context, userID utils.SixID, role models.Role) (*models.User, error)
	SetAdminRequested(ctx context.Context, userID utils.SixID, requested bool) error
	SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) (*models.User, error)
	UnsuspendUser(ctx context.Context, userID utils.SixID) (*models.User, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) coll() *mongo.Collection {
	return s.db.Collection(db.UsersCollection)
}

// Register creates a client account. The unique email index settles concurrent sign-ups.
func (s *userService) Register(ctx context.Context, name, email, password, phone string) (*models.User, error) {
	email = normalizeEmail(email)
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:                    strings.TrimSpace(name),
		Email:                   email,
		Phone:                   phone,
		PasswordHash:            hash,
		Role:                    models.RoleClient,
		NotificationPreferences: models.DefaultNotificationPreferences(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := db.InsertOne(ctx, s.coll(), user); err != nil {
		if db.IsMongoDuplicateKeyError(err) && strings.Contains(err.Error(), "email") {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error registering user %s: %w", email, err)
	}
	return user, nil
}

// Authenticate checks credentials and stamps the login time.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, ErrUserSuspended
	}

	now := time.Now().UTC()
	if _, err := s.coll().UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{"last_login_at": now}}); err != nil {
		log.Printf("Warning: failed to record login time for user %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// FindByID finds a non-deleted user by their ID.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	err := s.coll().FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID, err)
	}
	return &user, nil
}

// FindByEmail finds a non-deleted user by email address.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll().FindOne(ctx, bson.M{"email": normalizeEmail(email), "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

func (s *userService) FindAdmins(ctx context.Context) ([]models.User, error) {
	cursor, err := s.coll().Find(ctx, bson.M{"role": models.RoleAdmin, "deleted": false, "suspended": false})
	if err != nil {
		return nil, fmt.Errorf("error finding admins: %w", err)
	}
	var admins []models.User
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("error decoding admins: %w", err)
	}
	return admins, nil
}

// updateAndReturn applies update to a non-deleted user and returns the new document.
func (s *userService) updateAndReturn(ctx context.Context, userID utils.SixID, set bson.M) (*models.User, error) {
	set["updated_at"] = time.Now().UTC()
	var user models.User
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "deleted": false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating user %s: %w", userID, err)
	}
	return &user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID utils.SixID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.NotificationPreferences != nil {
		set["notification_preferences"] = upd.NotificationPreferences
	}
	if len(set) == 0 {
		return s.FindByID(ctx, userID)
	}
	return s.updateAndReturn(ctx, userID, set)
}

func (s *userService) ChangePassword(ctx context.Context, userID utils.SixID, currentPassword, newPassword string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	// Guard on the old hash so two concurrent changes cannot both pass the check.
	res, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": userID, "password": user.PasswordHash},
		bson.M{"$set": bson.M{"password": hash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error changing password for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *userService) List(ctx context.Context, filter UserFilter, page Page) (*PagedResult[models.User], error) {
	q := bson.M{"deleted": false}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if filter.Suspended != nil {
		q["suspended"] = *filter.Suspended
	}
	if filter.Search != "" {
		rx := bson.M{"$regex": regexpQuote(filter.Search), "$options": "i"}
		q["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}
	return findPage[models.User](ctx, s.coll(), q, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

func (s *userService) SetRole(ctx context.Context, userID utils.SixID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	set := bson.M{"role": role}
	if role == models.RoleAdmin {
		set["admin_requested"] = false
	}
	return s.updateAndReturn(ctx, userID, set)
}

func (s *userService) SetAdminRequested(ctx context.Context, userID utils.SixID, requested bool) error {
	_, err := s.updateAndReturn(ctx, userID, bson.M{"admin_requested": requested})
	return err
}

// SuspendUser blocks logins. Admins cannot suspend themselves.
func (s *userService) SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) (*models.User, error) {
	if userID == adminUserID {
		return nil, ErrForbidden
	}
	return s.updateAndReturn(ctx, userID, bson.M{"suspended": true})
}

func (s *userService) UnsuspendUser(ctx context.Context, userID utils.SixID) (*models.User, error) {
	return s.updateAndReturn(ctx, userID, bson.M{"suspended": false})
}

func (s *userService) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	cursor, err := s.coll().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"deleted": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("error counting users by role: %w", err)
	}
	var rows []struct {
		Role  models.Role `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding user counts: %w", err)
	}
	counts := make(map[models.Role]int64, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}
