package application

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "application:draft:"

// DraftStore keeps one cover letter draft per job posting.
// Drafts survive restarts and are only removed on submit or explicit clear.
type DraftStore struct {
	rdb *redis.Client
}

func NewDraftStore(rdb *redis.Client) *DraftStore {
	return &DraftStore{rdb: rdb}
}

func draftKey(userID, jobKey string) string {
	return fmt.Sprintf("%s%s:%s", draftKeyPrefix, userID, jobKey)
}

// Save overwrites the stored draft. Last write wins.
func (d *DraftStore) Save(ctx context.Context, userID, jobKey, text string) error {
	return d.rdb.Set(ctx, draftKey(userID, jobKey), text, 0).Err()
}

// Load returns the stored draft, or the empty string when none exists.
func (d *DraftStore) Load(ctx context.Context, userID, jobKey string) (string, error) {
	text, err := d.rdb.Get(ctx, draftKey(userID, jobKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// Clear removes the draft for a job. Clearing an absent draft is not an error.
func (d *DraftStore) Clear(ctx context.Context, userID, jobKey string) error {
	return d.rdb.Del(ctx, draftKey(userID, jobKey)).Err()
}
