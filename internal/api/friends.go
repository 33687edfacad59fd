package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
)

// FriendDistance is how far the viewer is from one friend.
type FriendDistance struct {
	Username string
	Km       float64
}

type dashboardPage struct {
	page
	View      relationship.View
	Distances []FriendDistance
}

// GET /dashboard/
func (h *Handler) Dashboard(c *gin.Context) {
	viewer := CurrentUser(c)

	view, err := h.relationshipService.Dashboard(c.Request.Context(), viewer.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", dashboardPage{
		page:      page{Title: "Dashboard", Viewer: viewer},
		View:      view,
		Distances: friendDistances(viewer.Profile.Location, view),
	})
}

func friendDistances(from *location.Coordinates, view relationship.View) []FriendDistance {
	if !from.Known() {
		return nil
	}
	var out []FriendDistance
	for _, f := range view.Friends {
		if km, ok := location.Distance(from, f.Profile.Location); ok {
			out = append(out, FriendDistance{Username: f.Username, Km: km})
		}
	}
	return out
}

// friendAction adapts a user-to-user transition into a handler that
// redirects back to the dashboard.
func (h *Handler) friendAction(param string, action func(c *gin.Context, actorID, targetID int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := idParam(c, param)
		if !ok {
			return
		}
		if err := action(c, CurrentUserID(c), targetID); err != nil {
			h.renderError(c, err)
			return
		}
		c.Redirect(http.StatusFound, "/dashboard/")
	}
}

// /send-request/:user_id/
func (h *Handler) SendRequest() gin.HandlerFunc {
	return h.friendAction("user_id", func(c *gin.Context, actorID, targetID int64) error {
		return h.relationshipService.Send(c.Request.Context(), actorID, targetID)
	})
}

// /accept-request/:request_id/
func (h *Handler) AcceptRequest() gin.HandlerFunc {
	return h.friendAction("request_id", func(c *gin.Context, actorID, requestID int64) error {
		return h.relationshipService.Accept(c.Request.Context(), requestID, actorID)
	})
}

// /reject-request/:request_id/
func (h *Handler) RejectRequest() gin.HandlerFunc {
	return h.friendAction("request_id", func(c *gin.Context, actorID, requestID int64) error {
		return h.relationshipService.Reject(c.Request.Context(), requestID, actorID)
	})
}

// /unfriend/:user_id/
func (h *Handler) Unfriend() gin.HandlerFunc {
	return h.friendAction("user_id", func(c *gin.Context, actorID, targetID int64) error {
		return h.relationshipService.Unfriend(c.Request.Context(), actorID, targetID)
	})
}

// /block/:user_id/
func (h *Handler) Block() gin.HandlerFunc {
	return h.friendAction("user_id", func(c *gin.Context, actorID, targetID int64) error {
		return h.relationshipService.Block(c.Request.Context(), actorID, targetID)
	})
}

// /unblock/:user_id/
func (h *Handler) Unblock() gin.HandlerFunc {
	return h.friendAction("user_id", func(c *gin.Context, actorID, targetID int64) error {
		return h.relationshipService.Unblock(c.Request.Context(), actorID, targetID)
	})
}
