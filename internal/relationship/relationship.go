package relationship

import (
	"time"

	"github.com/askwhyharsh/proxipal/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

// FriendRequest is a directed edge between two users. At most one edge
// exists per ordered pair; the opposite direction is a separate edge.
type FriendRequest struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Involves reports whether id is either end of the edge.
func (r FriendRequest) Involves(id int64) bool {
	return r.FromUserID == id || r.ToUserID == id
}

// Other returns the end of the edge that is not id.
func (r FriendRequest) Other(id int64) int64 {
	if r.FromUserID == id {
		return r.ToUserID
	}
	return r.FromUserID
}

// Request pairs an edge with the user on the other end.
type Request struct {
	FriendRequest
	Counterpart user.User
}

// View is the viewer's partition of the directory.
type View struct {
	Friends     []user.User
	Sent        []Request
	Received    []Request
	Blocked     []user.User
	BlockedBy   []user.User
	Suggestions []user.User
}

// Partition splits users into the relationship groups seen by viewerID.
// edges must contain every edge touching the viewer; others are ignored.
// User lists keep the order of users, request lists the order of edges.
func Partition(viewerID int64, users []user.User, edges []FriendRequest) View {
	byID := make(map[int64]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	friendIDs := make(map[int64]bool)
	sentIDs := make(map[int64]bool)
	receivedIDs := make(map[int64]bool)
	blockedIDs := make(map[int64]bool)
	blockedByIDs := make(map[int64]bool)

	var view View
	for _, e := range edges {
		if !e.Involves(viewerID) {
			continue
		}
		outgoing := e.FromUserID == viewerID
		other := e.Other(viewerID)

		if e.Status == StatusAccepted {
			friendIDs[other] = true
		}

		switch {
		case outgoing && e.Status == StatusBlocked:
			blockedIDs[other] = true
		case !outgoing && e.Status == StatusBlocked:
			blockedByIDs[other] = true
		}

		if outgoing && e.Status != StatusRejected {
			sentIDs[other] = true
			if u, ok := byID[other]; ok {
				view.Sent = append(view.Sent, Request{FriendRequest: e, Counterpart: u})
			}
		}
		if !outgoing && e.Status == StatusPending {
			receivedIDs[other] = true
			if u, ok := byID[other]; ok {
				view.Received = append(view.Received, Request{FriendRequest: e, Counterpart: u})
			}
		}
	}

	for _, u := range users {
		if u.ID == viewerID {
			continue
		}
		if friendIDs[u.ID] {
			view.Friends = append(view.Friends, u)
		}
		if blockedIDs[u.ID] {
			view.Blocked = append(view.Blocked, u)
		}
		if blockedByIDs[u.ID] {
			view.BlockedBy = append(view.BlockedBy, u)
		}
		if friendIDs[u.ID] || sentIDs[u.ID] || receivedIDs[u.ID] ||
			blockedIDs[u.ID] || blockedByIDs[u.ID] || u.IsSuperuser {
			continue
		}
		view.Suggestions = append(view.Suggestions, u)
	}

	return view
}
