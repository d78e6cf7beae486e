// Package auth provides Bearer token authentication for the backend API.
//
// # Tokens
//
// Clients authenticate with JWT tokens signed with HS256 using the
// configured jwt_secret. The "sub" claim identifies the client and is
// the only required claim besides the standard expiration.
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate("client-1", 24*time.Hour)
//	clientID, err := verifier.Verify(token)
//
// # Middleware
//
// Middleware wraps an http.Handler and rejects requests without a valid
// Bearer token. Rejections use the same {"detail": ...} JSON shape as
// the backend's application errors. Servers running without a
// jwt_secret skip the middleware entirely and accept all requests.
package auth
