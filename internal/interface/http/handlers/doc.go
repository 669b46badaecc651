// Package handlers contains HTTP building blocks shared by the API server
// and the WebSocket endpoint.
//
// # Authentication
//
// Authenticator verifies HS256 bearer tokens issued by the identity
// provider and stores the subject as the current user:
//
//	auth, _ := handlers.NewAuthenticator(handlers.AuthConfig{Secret: secret})
//	mux.Handle("GET /api/v1/badges", auth.Middleware(badges))
//
//	userID, ok := handlers.UserIDFromContext(r.Context())
//
// # Rate limiting
//
// RateLimiter keeps a token bucket per user (or per IP before
// authentication):
//
//	rl := handlers.NewRateLimiter(10, 20, 10*time.Minute)
//	h = rl.Middleware(h)
//
// # Health checks
//
// CompositeHealthChecker runs named checks in parallel. Critical checks
// decide readiness; optional ones (the Redis cache) only degrade health:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewDatabaseCheck(conn))
//	checker.AddOptionalCheck("redis", handlers.NewCacheCheck(cache))
package handlers
