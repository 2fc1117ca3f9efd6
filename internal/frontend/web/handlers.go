package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladeflyt/grunnlag/internal/session"
	"github.com/ladeflyt/grunnlag/internal/zaptec"
)

func (f Frontend) getLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (f Frontend) postLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, err := f.api.Authenticate(c, username, password)
	if err != nil {
		if errors.Is(err, zaptec.ErrInvalidCredentials) {
			c.HTML(http.StatusOK, "login.html", gin.H{"error": "Invalid credentials"})
			return
		}

		f.log.Error(err, "Authentication request failed")
		c.HTML(http.StatusOK, "login.html", gin.H{"error": "Login is unavailable, try again later"})
		return
	}

	sess := session.Session{
		ID:          session.NewID(),
		AccessToken: token,
		User:        username,
		CreatedAt:   time.Now(),
	}
	if err := f.store.Create(c, sess); err != nil {
		f.log.Error(err, "Failed to create session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "Login failed, try again later"})
		return
	}

	c.SetCookie(cookieName, sess.ID, 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (f Frontend) getHome(c *gin.Context) {
	sess := sessionFrom(c)
	now := time.Now()

	installations, err := f.api.Installations(c, sess.AccessToken)
	if err != nil {
		if errors.Is(err, zaptec.ErrUnauthorized) {
			f.clearSession(c)
			c.Redirect(http.StatusTemporaryRedirect, "/login")
			return
		}

		f.log.Error(err, "Failed to list installations")
		c.HTML(http.StatusOK, "home.html", gin.H{
			"year":  now.Year(),
			"month": int(now.Month()),
			"user":  sess.User,
			"error": "Could not fetch installations, try again later",
		})
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"year":          now.Year(),
		"month":         int(now.Month()),
		"user":          sess.User,
		"installations": installations,
	})
}

func (f Frontend) getLogout(c *gin.Context) {
	f.clearSession(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
