package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// MsgInvalidCredentials is the generic login failure message. Unknown
	// username, wrong password and disabled account all answer with this body
	// so a caller cannot probe which usernames exist.
	MsgInvalidCredentials = "Invalid username or password"

	// MsgUnauthorized is the body of 401 responses.
	MsgUnauthorized = "Unauthorized"

	// MsgForbidden is the body of 403 responses.
	MsgForbidden = "Forbidden"

	// MsgInternalError is the body of 500 responses.
	MsgInternalError = "Internal server error"
)
