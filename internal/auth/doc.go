// Package auth provides authentication and authorization functionality for the application.
//
// This package implements a role-based access control (RBAC) system with
// support for multiple authentication sources:
//   - Direct username/password authentication with Argon2id password hashing
//   - Microsoft Entra ID authentication via OpenID Connect
//   - Replit authentication via OpenID Connect with offline refresh tokens
//
// # Authentication Providers
//
// DirectProvider handles traditional username/password authentication against
// the credentials table. Login attempts for unknown users, wrong passwords and
// disabled accounts are distinguishable only by their error type so handlers
// can keep the response body identical for all three.
//
// MicrosoftProvider and ReplitProvider implement the OAuth2 authorization code
// flow with PKCE. Both build on the shared OIDCClient, which wraps provider
// discovery, state validation and ID token verification. Replit additionally
// requests offline access so expired sessions can be refreshed in place.
//
// External logins are reconciled into local accounts by the Resolver:
// a user is matched by provider subject first, then by verified email, and is
// created on first login otherwise. Resolution never changes the admin flag.
//
// # Authorization
//
// The Service type answers permission questions for an employee:
//   - HasRole: check membership of a named role
//   - HasPermission: check an exact (resource, action) pair across all roles
//   - FieldLevelPermissions: merge per-field grants, most restrictive wins
//   - AssignRole: idempotently grant a role
//
// Admin users bypass permission checks entirely; that shortcut lives in the
// route guards, not here.
//
// Example usage:
//
//	provider := auth.NewDirectProvider(db)
//	user, err := provider.Login(username, password)
//
//	service := auth.NewService(db)
//	ok, err := service.HasPermission(employeeID, auth.ResourceEmployees, auth.ActionUpdate)
package auth
