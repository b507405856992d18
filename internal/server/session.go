package server

import (
	"errors"
	"net/http"
	"time"

	"docbrief/internal/auth"

	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

func (s *Server) setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}

	return cookie.Value
}

// sessionUser resolves the session cookie. A zero id means anonymous.
func (s *Server) sessionUser(c echo.Context) (int64, error) {
	token := sessionToken(c)
	if token == "" {
		return 0, nil
	}

	userID, err := s.deps.Auth.Authenticate(c.Request().Context(), token)
	if errors.Is(err, auth.ErrInvalidSession) {
		return 0, nil
	}

	return userID, err
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := s.sessionUser(c)
		if err != nil {
			return err
		}

		if userID == 0 {
			return c.JSON(http.StatusUnauthorized, statusMessage{Status: statusFail, Message: "Login required."})
		}

		c.Set(userIDKey, userID)

		return next(c)
	}
}

func (s *Server) optionalSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := s.sessionUser(c)
		if err != nil {
			s.log.WarnContext(c.Request().Context(), "Failed to resolve session so request is anonymous",
				"error", err)
		}

		if userID != 0 {
			c.Set(userIDKey, userID)
		}

		return next(c)
	}
}

func currentUserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)

	return id
}
