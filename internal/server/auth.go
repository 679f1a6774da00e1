package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"top-ten/internal/auth"
	"top-ten/internal/game"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxEmail     = "email"
	ctxSessionID = "session_id"
)

var credentialMessages = bindMessages{
	"Email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"Password": {
		"required": "Password is required",
	},
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, credentialMessages, "Email and password are required") {
		return
	}
	user, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		writeError(c, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters long", s.auth.MinPasswordLength()))
		return
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(c, http.StatusBadRequest, "Please enter a valid email address")
		return
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(c, http.StatusConflict, "An account with that email already exists")
		return
	case err != nil:
		log.Printf("signup failed email=%s error=%v", req.Email, err)
		writeError(c, http.StatusInternalServerError, "failed to sign up")
		return
	}
	if !s.startSession(c, user) {
		return
	}
	log.Printf("user signed up user_id=%s", user.ID)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req, credentialMessages, "Email and password are required") {
		return
	}
	user, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Printf("login failed email=%s error=%v", req.Email, err)
		writeError(c, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if !s.startSession(c, user) {
		return
	}
	log.Printf("user signed in user_id=%s", user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleLogout(c *gin.Context) {
	if raw, err := c.Cookie(sessionCookieName); err == nil {
		if claims, err := s.auth.Parse(raw); err == nil {
			if err := s.sessions.Delete(claims.ID); err != nil {
				log.Printf("session delete failed session_id=%s error=%v", claims.ID, err)
			}
		}
	}
	clearSessionCookie(c.Writer)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetString(ctxUserID),
		"email":   c.GetString(ctxEmail),
	})
}

func (s *Server) startSession(c *gin.Context, user auth.User) bool {
	sessionID, _, err := s.sessions.Create(user.ID)
	if err != nil {
		log.Printf("session create failed user_id=%s error=%v", user.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to start session")
		return false
	}
	token, expiresAt, err := s.auth.Issue(user, sessionID)
	if err != nil {
		log.Printf("token issue failed user_id=%s error=%v", user.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to start session")
		return false
	}
	setSessionCookie(c.Writer, token, expiresAt)
	return true
}

// authenticate resolves the session cookie. It reports false when the cookie
// is missing, the token is invalid or the session has expired.
func (s *Server) authenticate(c *gin.Context) bool {
	raw, err := c.Cookie(sessionCookieName)
	if err != nil || raw == "" {
		return false
	}
	claims, err := s.auth.Parse(raw)
	if err != nil {
		return false
	}
	data, err := s.sessions.Get(claims.ID)
	if err != nil || data.UserID != claims.Subject {
		return false
	}
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxSessionID, claims.ID)
	return true
}

func (s *Server) requireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func (s *Server) requireViewAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentSession loads the session of an authenticated request.
func (s *Server) currentSession(c *gin.Context) (string, sessionData, bool) {
	id := c.GetString(ctxSessionID)
	data, err := s.sessions.Get(id)
	if err != nil {
		return "", sessionData{}, false
	}
	return id, data, true
}

func (d sessionData) gameSession() game.Session {
	return game.Session{
		GroupID: d.GroupID,
		RoundID: d.RoundID,
		IsJudge: d.IsJudge,
	}
}
