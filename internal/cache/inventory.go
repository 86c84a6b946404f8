package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	PostKeyPrefix    = "post:%d"
	FeedFirstPageKey = "feed:first"
	RecentPostsKey   = "posts:recent"
	UserPostsPrefix  = "user:%d:posts"
	TokenDenyPrefix  = "deny:jti:%s"
)

const (
	UserTTL      = 5 * time.Minute
	PostTTL      = 30 * time.Minute
	FeedTTL      = 30 * time.Second
	RecentTTL    = 1 * time.Minute
	UserPostsTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func UserPostsKey(userID uint) string {
	return fmt.Sprintf(UserPostsPrefix, userID)
}

func TokenDenyKey(jti string) string {
	return fmt.Sprintf(TokenDenyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, UserPostsKey(userID))
}

// InvalidatePost drops the post entry along with the list caches that
// may contain it.
func InvalidatePost(ctx context.Context, postID, userID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, FeedFirstPageKey)
	Invalidate(ctx, RecentPostsKey)
	Invalidate(ctx, UserPostsKey(userID))
}
