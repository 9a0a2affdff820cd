// Package auth provides the session unifier middleware for the web
// application.
//
// The unifier resolves the session cookie into a single CurrentUser no matter
// which login provider created the session. Providers are consulted in a
// fixed order (direct, Microsoft, Replit); the first identity present in the
// session wins. Expired Microsoft logins are sent back through the
// authorization flow; expired Replit logins are refreshed in place using the
// stored refresh token, and go back through the flow only when the refresh
// fails.
//
// The middleware performs the following tasks:
//   - Resolves the session into a CurrentUser once per request
//   - Stores the result in fiber.Locals for handlers to read
//   - Redirects lapsed sessions to their provider's login route
//   - Leaves sessionless requests untouched; route guards decide
//
// Usage:
//
//	unifier := authmiddleware.NewUnifier(db, replitProvider, expiry)
//	app.Use(unifier.Middleware)
//
// Route guards (RequireAuth, RequireAdmin, RequireRole) reject requests that
// need an identity the unifier did not produce.
package auth
