package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/geocode"
	"github.com/askwhyharsh/proxipal/internal/live"
	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/ratelimit"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	"github.com/askwhyharsh/proxipal/internal/session"
	"github.com/askwhyharsh/proxipal/internal/user"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
	"github.com/askwhyharsh/proxipal/pkg/logger"
	"github.com/askwhyharsh/proxipal/pkg/validator"
)

// LiveTracker streams a friend's location updates over a websocket.
type LiveTracker interface {
	Serve(c *gin.Context, viewerID, friendID int64, allowed live.Allowed)
}

// Deps groups everything the handlers call into.
type Deps struct {
	Users         user.UserService
	Relationships relationship.RelationshipService
	Locations     location.LocationService
	Sessions      session.SessionService
	RateLimiter   ratelimit.RateLimiter
	Geocoder      geocode.Geocoder
	Validator     validator.Validator
	Live          LiveTracker
	Logger        logger.Logger
	SecureCookie  bool
}

type Handler struct {
	userService         user.UserService
	relationshipService relationship.RelationshipService
	locationService     location.LocationService
	sessionService      session.SessionService
	rateLimiter         ratelimit.RateLimiter
	geocoder            geocode.Geocoder
	validator           validator.Validator
	live                LiveTracker
	logger              logger.Logger
	secureCookie        bool
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		userService:         d.Users,
		relationshipService: d.Relationships,
		locationService:     d.Locations,
		sessionService:      d.Sessions,
		rateLimiter:         d.RateLimiter,
		geocoder:            d.Geocoder,
		validator:           d.Validator,
		live:                d.Live,
		logger:              d.Logger,
		secureCookie:        d.SecureCookie,
	}
}

// page is the data every template receives.
type page struct {
	Title  string
	Viewer *user.User
}

type errorPage struct {
	page
	Message string
}

// GET /
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Title: "Home", Viewer: CurrentUser(c)})
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   c.GetTime(requestTimeKey),
	})
}

// renderError shows error.html with the status err maps to.
func (h *Handler) renderError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.HTML(status, "error.html", errorPage{
		page:    page{Title: http.StatusText(status), Viewer: CurrentUser(c)},
		Message: errorMessage(err, status),
	})
}

func errorMessage(err error, status int) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFriends):
		return "Not friends with this user."
	case errors.Is(err, apperrors.ErrUserNotFound):
		return "No such user."
	case errors.Is(err, apperrors.ErrRequestNotFound):
		return "No such friend request."
	case errors.Is(err, apperrors.ErrSelfRelation):
		return "You cannot do that to yourself."
	case status >= http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	default:
		return http.StatusText(status)
	}
}

// idParam reads a positive integer path parameter. Anything else is a 404,
// the same as an unmatched route.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.HTML(http.StatusNotFound, "error.html", errorPage{
			page:    page{Title: http.StatusText(http.StatusNotFound), Viewer: CurrentUser(c)},
			Message: http.StatusText(http.StatusNotFound),
		})
		return 0, false
	}
	return id, true
}
