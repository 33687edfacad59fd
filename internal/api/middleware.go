package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/session"
	"github.com/askwhyharsh/proxipal/internal/user"
	"github.com/askwhyharsh/proxipal/pkg/logger"
)

const (
	userKey        = "user"
	requestTimeKey = "request_time"
)

// RequestLogger logs one line per request and stamps the start time.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(requestTimeKey, start)
		c.Next()
		log.Info("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// LoadUser attaches the logged in user, if any, to the request.
func (h *Handler) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(session.CookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID, err := h.sessionService.Get(ctx, sid)
		if err != nil {
			c.Next()
			return
		}

		u, err := h.userService.Get(ctx, userID)
		if err != nil {
			h.logger.Warn("Session points at missing user", "user_id", userID, "error", err)
			c.Next()
			return
		}

		// Sliding expiry: every authenticated request restarts the TTL.
		if err := h.sessionService.Refresh(ctx, sid); err != nil {
			h.logger.Warn("Failed to refresh session", "user_id", userID, "error", err)
		} else {
			h.setSessionCookie(c, sid)
		}

		c.Set(userKey, u)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page.
// It must run after LoadUser.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by LoadUser or nil.
func CurrentUser(c *gin.Context) *user.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*user.User)
	return u
}

// CurrentUserID returns the logged in user's id or 0.
func CurrentUserID(c *gin.Context) int64 {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func (h *Handler) setSessionCookie(c *gin.Context, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, sid, int(h.sessionService.TTL().Seconds()), "/", "", h.secureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", h.secureCookie, true)
}
