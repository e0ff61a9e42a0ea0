package database

import (
	"testing"

	"github.com/tumer294/studio2/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUserEmailIndexIsUnique(t *testing.T) {
	indexes := userIndexes()

	assert.Len(t, indexes, 1)
	keys, ok := indexes[0].Keys.(bson.D)
	if !ok {
		t.Fatalf("Unexpected key type: %T", indexes[0].Keys)
	}
	assert.Equal(t, "email", keys[0].Key)
	if assert.NotNil(t, indexes[0].Options.Unique) {
		assert.True(t, *indexes[0].Options.Unique)
	}
}

func TestUserDocumentDefaultsRoleOnDecode(t *testing.T) {
	doc := UserModelToDocument(&models.User{
		UID: "u1", Name: "N", Username: "n", Email: "n@example.com",
	})
	assert.Equal(t, []string{}, doc.Followers)
	assert.Equal(t, []string{}, doc.SavedPosts)

	user, err := UserDocumentToModel(doc)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
}
