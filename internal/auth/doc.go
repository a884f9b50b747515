// Package auth provides signup, login and bearer-token authentication.
//
// Passwords are stored as bcrypt hashes. A successful login returns a signed
// HS256 JWT whose subject is the user id; protected routes resolve it back to
// a stored user through Middleware.RequireAuth.
//
// # Configuration
//
//	AUTH_TOKEN_SECRET=<random>   # Generated at startup if empty, tokens then die with the process
//	AUTH_TOKEN_EXPIRY=30m        # Access token lifetime
//	AUTH_TOKEN_ISSUER=bookcatalog
//	AUTH_BCRYPT_COST=12
//	AUTH_MAX_LOGIN_ATTEMPTS=5    # Failed logins per IP+username before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	tokens := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry, cfg.Auth.TokenIssuer)
//	authService, err := auth.NewService(usersRepo, tokens, cfg.Auth)
//	protected := router.Group("/", auth.NewMiddleware(authService).RequireAuth())
//
// Extract the caller in handlers:
//
//	user := auth.GetUser(c)
package auth
