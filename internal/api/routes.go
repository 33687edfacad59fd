package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/proxipal/internal/ratelimit"
	"github.com/askwhyharsh/proxipal/internal/web"
)

var getOrPost = []string{http.MethodGet, http.MethodPost}

func SetupRoutes(r *gin.Engine, handler *Handler, rlMiddleware *ratelimit.Middleware, allowedOrigins []string) error {
	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	// Apply global middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(handler.LoadUser())

	r.GET("/", handler.Home)
	r.GET("/healthz", handler.Health)

	// Auth routes
	r.GET("/login/", handler.LoginForm)
	r.POST("/login/", rlMiddleware.LoginRateLimit(), handler.Login)
	r.Match(getOrPost, "/logout/", handler.Logout)
	r.GET("/register/", handler.RegisterForm)
	r.POST("/register/", handler.Register)

	authed := r.Group("/", RequireAuth())
	{
		authed.GET("/dashboard/", handler.Dashboard)

		// Friend actions
		authed.Match(getOrPost, "/send-request/:user_id/", handler.SendRequest())
		authed.Match(getOrPost, "/accept-request/:request_id/", handler.AcceptRequest())
		authed.Match(getOrPost, "/reject-request/:request_id/", handler.RejectRequest())
		authed.Match(getOrPost, "/unfriend/:user_id/", handler.Unfriend())
		authed.Match(getOrPost, "/block/:user_id/", handler.Block())
		authed.Match(getOrPost, "/unblock/:user_id/", handler.Unblock())

		// Location routes
		authed.Any("/ajax/update-location/", handler.UpdateLocationAjax)
		authed.Any("/update-location/", handler.UpdateLocation)
		authed.GET("/track/:friend_id/", handler.TrackFriend)

		// WebSocket route
		authed.GET("/ws/track/:friend_id/", handler.TrackSocket)
	}

	return nil
}
