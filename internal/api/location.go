package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/user"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

const (
	statusSuccess      = "success"
	statusInvalidData  = "invalid data"
	statusOnlyPost     = "only POST allowed"
	statusRateLimited  = "rate limited"
	msgGeocodeMiss     = "Could not reverse geocode"
	msgGeocodeDown     = "Geocoding service unavailable"
	msgLocationNotSave = "Could not save location"
)

// POST /ajax/update-location/ with form fields latitude and longitude.
func (h *Handler) UpdateLocationAjax(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, statusResponse(statusOnlyPost))
		return
	}

	coords, ok := h.parseCoordinates(c.PostForm("latitude"), c.PostForm("longitude"))
	if !ok {
		c.JSON(http.StatusBadRequest, statusResponse(statusInvalidData))
		return
	}

	if !h.allowLocationUpdate(c) {
		c.JSON(http.StatusTooManyRequests, statusResponse(statusRateLimited))
		return
	}

	if _, err := h.locationService.Update(c.Request.Context(), CurrentUserID(c), coords, nil); err != nil {
		h.logger.Error("Failed to update location", "user_id", CurrentUserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse(msgLocationNotSave))
		return
	}

	c.JSON(http.StatusOK, statusResponse(statusSuccess))
}

// POST /update-location/ with a JSON body. The address is resolved by
// reverse geocoding before anything is stored.
func (h *Handler) UpdateLocation(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, statusResponse(statusOnlyPost))
		return
	}

	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, statusResponse(statusInvalidData))
		return
	}
	if err := h.validator.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		c.JSON(http.StatusBadRequest, statusResponse(statusInvalidData))
		return
	}
	coords := location.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}

	if !h.allowLocationUpdate(c) {
		c.JSON(http.StatusTooManyRequests, statusResponse(statusRateLimited))
		return
	}

	ctx := c.Request.Context()
	address, err := h.geocoder.Reverse(ctx, coords)
	if errors.Is(err, apperrors.ErrNoGeocodeResult) {
		c.JSON(http.StatusBadRequest, errorResponse(msgGeocodeMiss))
		return
	}
	if err != nil {
		h.logger.Error("Reverse geocoding failed", "user_id", CurrentUserID(c), "error", err)
		c.JSON(http.StatusBadGateway, errorResponse(msgGeocodeDown))
		return
	}

	if _, err := h.locationService.Update(ctx, CurrentUserID(c), coords, &address); err != nil {
		h.logger.Error("Failed to update location", "user_id", CurrentUserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse(msgLocationNotSave))
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: statusSuccess, Address: address})
}

type trackPage struct {
	page
	Friend    *user.User
	Distance  *float64
	UserLat   float64
	UserLon   float64
	FriendLat float64
	FriendLon float64
	History   []location.HistoryEntry
}

// GET /track/:friend_id/
func (h *Handler) TrackFriend(c *gin.Context) {
	friendID, ok := idParam(c, "friend_id")
	if !ok {
		return
	}

	viewer := CurrentUser(c)
	friend, err := h.friend(c, viewer.ID, friendID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	history, err := h.locationService.History(c.Request.Context(), friend.ID, location.MaxHistory)
	if err != nil {
		h.renderError(c, err)
		return
	}

	data := trackPage{
		page:    page{Title: "Track " + friend.Username, Viewer: viewer},
		Friend:  friend,
		History: history,
	}
	data.UserLat, data.UserLon = orZero(viewer.Profile.Location)
	data.FriendLat, data.FriendLon = orZero(friend.Profile.Location)
	if km, ok := location.Distance(viewer.Profile.Location, friend.Profile.Location); ok {
		data.Distance = &km
	}

	c.HTML(http.StatusOK, "track_friend.html", data)
}

// GET /ws/track/:friend_id/
func (h *Handler) TrackSocket(c *gin.Context) {
	friendID, err := strconv.ParseInt(c.Param("friend_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(http.StatusText(http.StatusNotFound)))
		return
	}

	viewerID := CurrentUserID(c)
	if _, err := h.friend(c, viewerID, friendID); err != nil {
		status := apperrors.StatusCode(err)
		c.JSON(status, errorResponse(errorMessage(err, status)))
		return
	}

	h.live.Serve(c, viewerID, friendID, func(ctx context.Context) (bool, error) {
		return h.relationshipService.AreFriends(ctx, viewerID, friendID)
	})
}

// friend loads friendID and checks it is an accepted friend of viewerID.
func (h *Handler) friend(c *gin.Context, viewerID, friendID int64) (*user.User, error) {
	ctx := c.Request.Context()
	friend, err := h.userService.Get(ctx, friendID)
	if err != nil {
		return nil, err
	}

	ok, err := h.relationshipService.AreFriends(ctx, viewerID, friendID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotFriends
	}
	return friend, nil
}

func (h *Handler) parseCoordinates(latStr, lonStr string) (location.Coordinates, bool) {
	if latStr == "" || lonStr == "" {
		return location.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return location.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return location.Coordinates{}, false
	}
	if err := h.validator.ValidateCoordinates(lat, lon); err != nil {
		return location.Coordinates{}, false
	}
	return location.Coordinates{Latitude: lat, Longitude: lon}, true
}

// allowLocationUpdate fails open when the limiter itself errors.
func (h *Handler) allowLocationUpdate(c *gin.Context) bool {
	allowed, err := h.rateLimiter.AllowLocationUpdate(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.logger.Warn("Rate limiter unavailable", "user_id", CurrentUserID(c), "error", err)
		return true
	}
	return allowed
}

func orZero(c *location.Coordinates) (float64, float64) {
	if c == nil {
		return 0, 0
	}
	return c.Latitude, c.Longitude
}
