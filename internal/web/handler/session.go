package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

// EstablishSession generates a session ID, persists the session data and sets
// the cookie. All provider login legs end here so cookie attributes stay
// identical regardless of how the user authenticated.
func EstablishSession(c *fiber.Ctx, cfg *config.Config, data *session.Data) (string, error) {
	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return "", err
	}

	if err = data.Write(sessionID, cfg.Webserver.Session.ExpiryTime); err != nil {
		return "", err
	}

	SetSessionCookie(c, cfg, sessionID)

	return sessionID, nil
}

// RotateSession discards the old session and establishes a fresh one for the
// given data. Login callbacks use it so a session id handed out before
// authentication never survives the privilege change.
func RotateSession(c *fiber.Ctx, cfg *config.Config, oldSessionID string, data *session.Data) (string, error) {
	if err := session.Destroy(oldSessionID); err != nil {
		return "", err
	}

	return EstablishSession(c, cfg, data)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(c *fiber.Ctx, cfg *config.Config, sessionID string) {
	cookie := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}

// ClearSessionCookie deletes the session cookie on the response.
func ClearSessionCookie(c *fiber.Ctx, cfg *config.Config) {
	cookie := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}
