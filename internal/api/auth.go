package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/session"
	"github.com/askwhyharsh/proxipal/internal/user"
)

type formPage struct {
	page
	Errors   *user.FormErrors
	Username string
	Email    string
	Next     string
}

// GET /login/
func (h *Handler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", formPage{
		page:   page{Title: "Log in", Viewer: CurrentUser(c)},
		Errors: &user.FormErrors{},
		Next:   c.Query("next"),
	})
}

// POST /login/
func (h *Handler) Login(c *gin.Context) {
	creds := user.Credentials{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}
	next := c.PostForm("next")

	u, err := h.userService.Authenticate(c.Request.Context(), creds)
	if err != nil {
		var ferr *user.FormErrors
		if errors.As(err, &ferr) {
			c.HTML(http.StatusOK, "login.html", formPage{
				page:     page{Title: "Log in"},
				Errors:   ferr,
				Username: creds.Username,
				Next:     next,
			})
			return
		}
		h.renderError(c, err)
		return
	}

	if err := h.startSession(c, u.ID); err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.Info("User logged in", "user_id", u.ID)
	c.Redirect(http.StatusFound, safeRedirect(next, "/dashboard/"))
}

// GET|POST /logout/
func (h *Handler) Logout(c *gin.Context) {
	if sid, err := c.Cookie(session.CookieName); err == nil && sid != "" {
		if err := h.sessionService.Delete(c.Request.Context(), sid); err != nil {
			h.logger.Warn("Failed to delete session", "error", err)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/login/")
}

// GET /register/
func (h *Handler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", formPage{
		page:   page{Title: "Register", Viewer: CurrentUser(c)},
		Errors: &user.FormErrors{},
	})
}

// POST /register/ logs the new user in, then sends them to the login page.
func (h *Handler) Register(c *gin.Context) {
	form := user.Registration{
		Username:  c.PostForm("username"),
		Email:     c.PostForm("email"),
		Password1: c.PostForm("password1"),
		Password2: c.PostForm("password2"),
	}

	u, err := h.userService.Register(c.Request.Context(), form)
	if err != nil {
		var ferr *user.FormErrors
		if errors.As(err, &ferr) {
			c.HTML(http.StatusOK, "register.html", formPage{
				page:     page{Title: "Register"},
				Errors:   ferr,
				Username: form.Username,
				Email:    form.Email,
			})
			return
		}
		h.renderError(c, err)
		return
	}

	if err := h.startSession(c, u.ID); err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.Info("User registered", "user_id", u.ID, "username", u.Username)
	c.Redirect(http.StatusFound, "/login/")
}

func (h *Handler) startSession(c *gin.Context, userID int64) error {
	sid, err := h.sessionService.Create(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, sid)
	return nil
}

// safeRedirect only follows local paths.
func safeRedirect(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
