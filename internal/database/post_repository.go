// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID        string            `bson:"_id"`
	UserID    string            `bson:"userId"`
	Username  string            `bson:"username"`
	Content   string            `bson:"content"`
	MediaKey  string            `bson:"mediaKey,omitempty"`
	MediaType string            `bson:"mediaType,omitempty"`
	Likes     []string          `bson:"likes"`
	Comments  []CommentDocument `bson:"comments"`
	Reports   []ReportDocument  `bson:"reports,omitempty"`
	Status    string            `bson:"status,omitempty"`
	CreatedAt time.Time         `bson:"createdAt"`
}

// CommentDocument is the embedded comment schema, including the author
// display fields snapshotted when the comment was written.
type CommentDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"userId"`
	Username  string    `bson:"username"`
	Name      string    `bson:"name"`
	AvatarKey string    `bson:"avatarKey,omitempty"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ReportDocument is the embedded report schema.
type ReportDocument struct {
	UserID    string    `bson:"userId"`
	Reason    string    `bson:"reason"`
	CreatedAt time.Time `bson:"createdAt"`
}

// PostModelToDocument converts a Post model to a MongoDB document.
func PostModelToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:        post.ID,
		UserID:    post.UserID,
		Username:  post.Username,
		Content:   post.Content,
		MediaKey:  post.MediaKey,
		MediaType: string(post.MediaType),
		Likes:     post.Likes,
		Status:    string(post.Status),
		CreatedAt: post.CreatedAt,
	}
	if doc.Likes == nil {
		doc.Likes = []string{}
	}
	doc.Comments = make([]CommentDocument, len(post.Comments))
	for i, c := range post.Comments {
		doc.Comments[i] = CommentDocument(c)
	}
	doc.Reports = make([]ReportDocument, len(post.Reports))
	for i, r := range post.Reports {
		doc.Reports[i] = ReportDocument(r)
	}
	return doc
}

// PostDocumentToModel converts a MongoDB document to a validated Post model.
// Store documents are loose records; the shape is checked here, not trusted.
func PostDocumentToModel(doc *PostDocument) (*models.Post, error) {
	post := &models.Post{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Username:  doc.Username,
		Content:   doc.Content,
		MediaKey:  doc.MediaKey,
		MediaType: models.MediaType(doc.MediaType),
		Likes:     doc.Likes,
		Status:    models.PostStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	post.Comments = make([]models.Comment, len(doc.Comments))
	for i, c := range doc.Comments {
		post.Comments[i] = models.Comment(c)
	}
	post.Reports = make([]models.Report, len(doc.Reports))
	for i, r := range doc.Reports {
		post.Reports[i] = models.Report(r)
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

// SavePost creates or updates a post.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := PostModelToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID}
	update := bson.M{"$set": doc}

	_, err := m.Posts.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, err
	}

	return PostDocumentToModel(&doc)
}

// GetAllPosts retrieves the full post collection. The explore view consumes
// this unfiltered; banned posts are dropped by its classifier.
func (m *MongoDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	cursor, err := m.Posts.Find(ctx, bson.M{})
	if err != nil {
		return nil, utils.NewUpstreamError("database query failed", err)
	}
	defer cursor.Close(ctx)

	return m.decodePosts(ctx, cursor)
}

// GetRecentPosts retrieves the newest posts, descending by creation time.
func (m *MongoDB) GetRecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewUpstreamError("database query failed", err)
	}
	defer cursor.Close(ctx)

	return m.decodePosts(ctx, cursor)
}

func (m *MongoDB) decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}

		post, err := PostDocumentToModel(&doc)
		if err != nil {
			log.Printf("Error converting document to model: %v", err)
			continue
		}
		posts = append(posts, post)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewUpstreamError("cursor iteration failed", err)
	}
	return posts, nil
}

// AddLike adds a user to a post's like set. $addToSet keeps the set free of
// duplicates even under concurrent toggles.
func (m *MongoDB) AddLike(ctx context.Context, postID, userID string) error {
	return m.updatePostArray(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike removes a user from a post's like set.
func (m *MongoDB) RemoveLike(ctx context.Context, postID, userID string) error {
	return m.updatePostArray(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

// AddComment appends a comment to a post. Comments are never reordered in
// storage; display-time sorting is the view's concern.
func (m *MongoDB) AddComment(ctx context.Context, postID string, comment models.Comment) error {
	doc := CommentDocument(comment)
	return m.updatePostArray(ctx, postID, bson.M{"$push": bson.M{"comments": doc}})
}

// AddReport appends a report to a post.
func (m *MongoDB) AddReport(ctx context.Context, postID string, report models.Report) error {
	doc := ReportDocument(report)
	return m.updatePostArray(ctx, postID, bson.M{"$push": bson.M{"reports": doc}})
}

func (m *MongoDB) updatePostArray(ctx context.Context, postID string, update bson.M) error {
	result, err := m.Posts.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return utils.NewUpstreamError("post update failed", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// DeletePost removes the post document entirely. Embedded comments and
// reports go with it.
func (m *MongoDB) DeletePost(ctx context.Context, postID string) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return utils.NewUpstreamError("post delete failed", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}
