/*
Package web is the browser frontend. It serves the login flow, the home page and the invoice
basis exports. All pages except /login sit behind a session cookie; the cookie only carries an
opaque session ID resolved against the session store on every request.
*/
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/ladeflyt/grunnlag/internal/session"
	"github.com/ladeflyt/grunnlag/internal/zaptec"
)

// Client is the Zaptec cloud surface the frontend depends on.
type Client interface {
	// Authenticate exchanges credentials for an access token. Rejected credentials return
	// zaptec.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (string, error)

	// Installations lists the installations visible to token.
	Installations(ctx context.Context, token string) ([]zaptec.Installation, error)

	// ChargeHistory retrieves charge sessions for installationID within [from, to).
	ChargeHistory(ctx context.Context, token, installationID string, from, to time.Time) ([]zaptec.ChargeSession, error)
}

// HistoryCache caches charge history of closed billing periods. A nil HistoryCache disables
// caching.
type HistoryCache interface {
	Get(key string, v any) bool
	Set(key string, v any) error
}

const (
	cookieName        = "session_id"
	sessionContextKey = "web/session"
)

// Frontend is the browser HTTP frontend. It is responsible for configuring routers with
// handlers for login, export and logout.
type Frontend struct {
	log     logr.Logger
	store   session.Store
	api     Client
	history HistoryCache
}

// New creates a new Frontend. history may be nil to disable charge history caching.
func New(logger logr.Logger, store session.Store, api Client, history HistoryCache) Frontend {
	return Frontend{
		log:     logger,
		store:   store,
		api:     api,
		history: history,
	}
}

// Configure configures router with the frontend's pages and forms.
func (f Frontend) Configure(router *gin.Engine) error {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	login := router.Group("/login", f.redirectAuthenticated())
	login.GET("", f.getLogin)
	login.POST("", f.postLogin)

	authed := router.Group("/", f.requireSession())
	authed.GET("", f.getHome)
	authed.POST("export", f.postExport)
	authed.POST("exportall", f.postExportAll)
	authed.GET("logout", f.getLogout)

	return nil
}

// requireSession resolves the session cookie against the store. Requests without a valid
// session are redirected to /login.
func (f Frontend) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, "/login")
			c.Abort()
			return
		}

		sess, err := f.store.Get(c, id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				f.log.Error(err, "Failed to look up session")
			}

			c.Redirect(http.StatusTemporaryRedirect, "/login")
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// redirectAuthenticated sends requests carrying a valid session back to the home page so login
// pages aren't shown to logged-in users.
func (f Frontend) redirectAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil {
			c.Next()
			return
		}

		if _, err := f.store.Get(c, id); err == nil {
			c.Redirect(http.StatusTemporaryRedirect, "/")
			c.Abort()
			return
		}

		c.Next()
	}
}

// sessionFrom retrieves the session placed in the context by requireSession.
func sessionFrom(c *gin.Context) session.Session {
	sess, _ := c.Get(sessionContextKey)
	s, _ := sess.(session.Session)
	return s
}

// clearSession removes the session behind c's cookie, if any, and clears the cookie.
func (f Frontend) clearSession(c *gin.Context) {
	if id, err := c.Cookie(cookieName); err == nil {
		if err := f.store.Delete(c, id); err != nil {
			f.log.Error(err, "Failed to delete session")
		}
	}

	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}
