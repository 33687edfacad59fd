package relationship

import (
	"context"
	"fmt"

	"github.com/askwhyharsh/proxipal/internal/user"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
	"github.com/askwhyharsh/proxipal/pkg/logger"
)

// Store holds friend request edges. Every mutation is a single atomic
// statement so concurrent requests on the same pair cannot duplicate edges.
type Store interface {
	// ListFriendRequests returns every edge touching userID, oldest first.
	ListFriendRequests(ctx context.Context, userID int64) ([]FriendRequest, error)
	// SendFriendRequest creates a pending edge from->to unless an accepted
	// or blocked edge exists in either direction or from->to already exists.
	SendFriendRequest(ctx context.Context, fromID, toID int64) (bool, error)
	// RespondFriendRequest sets status on a non-blocked edge addressed to
	// actorID, else apperrors.ErrRequestNotFound.
	RespondFriendRequest(ctx context.Context, requestID, actorID int64, status Status) (*FriendRequest, error)
	// DeleteFriendship removes accepted edges between a and b in either direction.
	DeleteFriendship(ctx context.Context, a, b int64) (int64, error)
	// BlockUser upserts from->to with status blocked.
	BlockUser(ctx context.Context, fromID, toID int64) (*FriendRequest, error)
	// DeleteBlock removes the blocked edge from->to.
	DeleteBlock(ctx context.Context, fromID, toID int64) (int64, error)
	// AreFriends reports whether an accepted edge exists in either direction.
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// Directory is the part of the user directory the engine reads.
type Directory interface {
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

type RelationshipService interface {
	Send(ctx context.Context, fromID, toID int64) error
	Accept(ctx context.Context, requestID, actorID int64) error
	Reject(ctx context.Context, requestID, actorID int64) error
	Unfriend(ctx context.Context, userID, otherID int64) error
	Block(ctx context.Context, userID, otherID int64) error
	Unblock(ctx context.Context, userID, otherID int64) error
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
	Dashboard(ctx context.Context, viewerID int64) (View, error)
}

type Service struct {
	store  Store
	users  Directory
	logger logger.Logger
}

func NewService(store Store, users Directory, log logger.Logger) *Service {
	return &Service{
		store:  store,
		users:  users,
		logger: log,
	}
}

// Send offers friendship from fromID to toID. It is a silent no-op when the
// pair is already friends, blocked either way, or fromID already asked.
func (s *Service) Send(ctx context.Context, fromID, toID int64) error {
	if err := s.checkTarget(ctx, fromID, toID); err != nil {
		return err
	}

	created, err := s.store.SendFriendRequest(ctx, fromID, toID)
	if err != nil {
		return fmt.Errorf("failed to send friend request: %w", err)
	}

	s.logger.Debug("Friend request sent", "from", fromID, "to", toID, "created", created)
	return nil
}

func (s *Service) Accept(ctx context.Context, requestID, actorID int64) error {
	return s.respond(ctx, requestID, actorID, StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, requestID, actorID int64) error {
	return s.respond(ctx, requestID, actorID, StatusRejected)
}

func (s *Service) respond(ctx context.Context, requestID, actorID int64, status Status) error {
	req, err := s.store.RespondFriendRequest(ctx, requestID, actorID, status)
	if err != nil {
		return fmt.Errorf("failed to update friend request %d: %w", requestID, err)
	}

	s.logger.Debug("Friend request answered", "request_id", req.ID, "from", req.FromUserID, "status", status)
	return nil
}

func (s *Service) Unfriend(ctx context.Context, userID, otherID int64) error {
	if _, err := s.store.DeleteFriendship(ctx, userID, otherID); err != nil {
		return fmt.Errorf("failed to unfriend: %w", err)
	}
	return nil
}

// Block marks otherID as blocked by userID, overriding any earlier state of
// the userID->otherID edge.
func (s *Service) Block(ctx context.Context, userID, otherID int64) error {
	if err := s.checkTarget(ctx, userID, otherID); err != nil {
		return err
	}

	if _, err := s.store.BlockUser(ctx, userID, otherID); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}

	s.logger.Info("User blocked", "user_id", userID, "blocked_id", otherID)
	return nil
}

func (s *Service) Unblock(ctx context.Context, userID, otherID int64) error {
	if _, err := s.store.DeleteBlock(ctx, userID, otherID); err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return nil
}

func (s *Service) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	if userID == otherID {
		return false, nil
	}
	return s.store.AreFriends(ctx, userID, otherID)
}

// Dashboard loads the directory and the viewer's edges once and partitions them.
func (s *Service) Dashboard(ctx context.Context, viewerID int64) (View, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return View{}, fmt.Errorf("failed to list users: %w", err)
	}

	edges, err := s.store.ListFriendRequests(ctx, viewerID)
	if err != nil {
		return View{}, fmt.Errorf("failed to list friend requests: %w", err)
	}

	return Partition(viewerID, users, edges), nil
}

func (s *Service) checkTarget(ctx context.Context, userID, otherID int64) error {
	if userID == otherID {
		return apperrors.ErrSelfRelation
	}
	if _, err := s.users.GetUserByID(ctx, otherID); err != nil {
		return err
	}
	return nil
}
