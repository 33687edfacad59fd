package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askwhyharsh/proxipal/internal/user"
)

func usernames(users []user.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func counterparts(reqs []Request) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Counterpart.Username)
	}
	return out
}

func TestPartition(t *testing.T) {
	users := []user.User{
		{ID: 1, Username: "me"},
		{ID: 2, Username: "friend"},
		{ID: 3, Username: "asked"},
		{ID: 4, Username: "asker"},
		{ID: 5, Username: "blocked"},
		{ID: 6, Username: "blocker"},
		{ID: 7, Username: "admin", IsSuperuser: true},
		{ID: 8, Username: "stranger"},
		{ID: 9, Username: "rejected-me"},
		{ID: 10, Username: "i-rejected"},
	}
	edges := []FriendRequest{
		{ID: 1, FromUserID: 1, ToUserID: 2, Status: StatusAccepted},
		{ID: 2, FromUserID: 1, ToUserID: 3, Status: StatusPending},
		{ID: 3, FromUserID: 4, ToUserID: 1, Status: StatusPending},
		{ID: 4, FromUserID: 1, ToUserID: 5, Status: StatusBlocked},
		{ID: 5, FromUserID: 6, ToUserID: 1, Status: StatusBlocked},
		{ID: 6, FromUserID: 1, ToUserID: 9, Status: StatusRejected},
		{ID: 7, FromUserID: 10, ToUserID: 1, Status: StatusRejected},
		{ID: 8, FromUserID: 8, ToUserID: 3, Status: StatusPending},
	}

	v := Partition(1, users, edges)

	assert.Equal(t, []string{"friend"}, usernames(v.Friends))
	assert.Equal(t, []string{"friend", "asked", "blocked"}, counterparts(v.Sent))
	assert.Equal(t, []string{"asker"}, counterparts(v.Received))
	assert.Equal(t, []string{"blocked"}, usernames(v.Blocked))
	assert.Equal(t, []string{"blocker"}, usernames(v.BlockedBy))
	assert.Equal(t, []string{"stranger", "rejected-me", "i-rejected"}, usernames(v.Suggestions))
}

func TestPartitionEmptyDirectory(t *testing.T) {
	v := Partition(1, nil, nil)
	assert.Empty(t, v.Suggestions)
	assert.Empty(t, v.Friends)
}

func TestPartitionIncomingAcceptedIsFriend(t *testing.T) {
	users := []user.User{{ID: 1, Username: "me"}, {ID: 2, Username: "pal"}}
	edges := []FriendRequest{{ID: 1, FromUserID: 2, ToUserID: 1, Status: StatusAccepted}}

	v := Partition(1, users, edges)
	assert.Equal(t, []string{"pal"}, usernames(v.Friends))
	assert.Empty(t, v.Sent)
	assert.Empty(t, v.Received)
	assert.Empty(t, v.Suggestions)
}

func TestFriendRequestOther(t *testing.T) {
	r := FriendRequest{FromUserID: 1, ToUserID: 2}
	assert.Equal(t, int64(2), r.Other(1))
	assert.Equal(t, int64(1), r.Other(2))
	assert.True(t, r.Involves(2))
	assert.False(t, r.Involves(3))
}
