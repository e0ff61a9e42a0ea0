// internal/database/user_repository.go
package database

import (
	"context"
	"log"
	"time"

	"github.com/tumer294/studio2/internal/models"
	"github.com/tumer294/studio2/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDocument represents the MongoDB schema for a user profile.
type UserDocument struct {
	UID            string    `bson:"_id"`
	Name           string    `bson:"name"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedPassword,omitempty"`
	Bio            string    `bson:"bio"`
	AvatarKey      string    `bson:"avatarKey"`
	CoverKey       string    `bson:"coverKey"`
	Followers      []string  `bson:"followers"`
	Following      []string  `bson:"following"`
	SavedPosts     []string  `bson:"savedPosts"`
	Role           string    `bson:"role"`
	Theme          string    `bson:"theme"`
	Language       string    `bson:"language"`
	WelcomeShown   bool      `bson:"welcomeShown"`
	CreatedAt      time.Time `bson:"createdAt"`
}

// userIndexes declares the indexes the users collection needs. The unique
// email index makes the signup duplicate check atomic: a concurrent second
// insert fails with a duplicate-key error instead of a second account.
func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}

// UserModelToDocument converts a User model to a MongoDB document.
func UserModelToDocument(user *models.User) *UserDocument {
	doc := &UserDocument{
		UID:            user.UID,
		Name:           user.Name,
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Bio:            user.Bio,
		AvatarKey:      user.AvatarKey,
		CoverKey:       user.CoverKey,
		Followers:      user.Followers,
		Following:      user.Following,
		SavedPosts:     user.SavedPosts,
		Role:           string(user.Role),
		Theme:          user.Theme,
		Language:       user.Language,
		WelcomeShown:   user.WelcomeShown,
		CreatedAt:      user.CreatedAt,
	}
	if doc.Followers == nil {
		doc.Followers = []string{}
	}
	if doc.Following == nil {
		doc.Following = []string{}
	}
	if doc.SavedPosts == nil {
		doc.SavedPosts = []string{}
	}
	return doc
}

// UserDocumentToModel converts a MongoDB document to a validated User model.
func UserDocumentToModel(doc *UserDocument) (*models.User, error) {
	user := &models.User{
		UID:            doc.UID,
		Name:           doc.Name,
		Username:       doc.Username,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Bio:            doc.Bio,
		AvatarKey:      doc.AvatarKey,
		CoverKey:       doc.CoverKey,
		Followers:      doc.Followers,
		Following:      doc.Following,
		SavedPosts:     doc.SavedPosts,
		Role:           models.Role(doc.Role),
		Theme:          doc.Theme,
		Language:       doc.Language,
		WelcomeShown:   doc.WelcomeShown,
		CreatedAt:      doc.CreatedAt,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by their UID.
func (m *MongoDB) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(uid)
	}
	if err != nil {
		return nil, err
	}

	return UserDocumentToModel(&doc)
}

// GetUserByEmail retrieves a user by email address.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(email)
	}
	if err != nil {
		return nil, err
	}

	return UserDocumentToModel(&doc)
}

// GetUsersByIDs retrieves a batch of users with a single $in query. The
// explore view's author directory resolves newly-seen authors through this.
func (m *MongoDB) GetUsersByIDs(ctx context.Context, uids []string) ([]*models.User, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	cursor, err := m.Users.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, utils.NewUpstreamError("user batch query failed", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding user document: %v", err)
			continue
		}
		user, err := UserDocumentToModel(&doc)
		if err != nil {
			log.Printf("Error converting user document to model: %v", err)
			continue
		}
		users = append(users, user)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewUpstreamError("cursor iteration failed", err)
	}
	return users, nil
}

// GetSuggestedUsers returns up to limit users other than the given one,
// for the "who to follow" sidebar.
func (m *MongoDB) GetSuggestedUsers(ctx context.Context, excludeUID string, limit int) ([]*models.User, error) {
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := m.Users.Find(ctx, bson.M{"_id": bson.M{"$ne": excludeUID}}, opts)
	if err != nil {
		return nil, utils.NewUpstreamError("suggested users query failed", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding user document: %v", err)
			continue
		}
		user, err := UserDocumentToModel(&doc)
		if err != nil {
			log.Printf("Error converting user document to model: %v", err)
			continue
		}
		users = append(users, user)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewUpstreamError("cursor iteration failed", err)
	}
	return users, nil
}

// CreateUser inserts a new user profile. Fails if the UID or the email is
// already taken; the unique email index makes the latter atomic.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	doc := UserModelToDocument(user)
	_, err := m.Users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "User already exists", err)
	}
	return err
}

// CreateUserIfAbsent provisions a profile atomically: the upsert with
// $setOnInsert only writes when no document exists, so two concurrent first
// sessions cannot both create one. Returns true when this call created it.
func (m *MongoDB) CreateUserIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	doc := UserModelToDocument(user)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.UID}
	update := bson.M{"$setOnInsert": doc}

	result, err := m.Users.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, utils.NewUpstreamError("profile provisioning failed", err)
	}
	return result.UpsertedCount > 0, nil
}

// SetWelcomeShown persists the one-time welcome prompt dismissal.
func (m *MongoDB) SetWelcomeShown(ctx context.Context, uid string) error {
	return m.updateUser(ctx, uid, bson.M{"$set": bson.M{"welcomeShown": true}})
}

// SavePostForUser adds a post ID to the user's saved set.
func (m *MongoDB) SavePostForUser(ctx context.Context, uid, postID string) error {
	return m.updateUser(ctx, uid, bson.M{"$addToSet": bson.M{"savedPosts": postID}})
}

// UnsavePostForUser removes a post ID from the user's saved set.
func (m *MongoDB) UnsavePostForUser(ctx context.Context, uid, postID string) error {
	return m.updateUser(ctx, uid, bson.M{"$pull": bson.M{"savedPosts": postID}})
}

func (m *MongoDB) updateUser(ctx context.Context, uid string, update bson.M) error {
	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return utils.NewUpstreamError("user update failed", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(uid)
	}
	return nil
}
