package repositories

import (
	"encoding/json"
	"fmt"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix    = "post:"
	SlugKeyPrefix    = "slug:"
	AuthorKeyPrefix  = "author:"
	CommentKeyPrefix = "comment:"
)

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

func slugKey(slug string) []byte {
	return []byte(SlugKeyPrefix + slug)
}

func authorKey(id string) []byte {
	return []byte(AuthorKeyPrefix + id)
}

// commentKey keeps comments grouped under their post for prefix scans
func commentKey(postID, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", CommentKeyPrefix, postID, id))
}

func commentPrefix(postID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", CommentKeyPrefix, postID))
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
