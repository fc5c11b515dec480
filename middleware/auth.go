package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"itin/access"
	"itin/database"
	"itin/models"
	"itin/utils"
)

// AuthMiddleware validates the bearer token, loads the user and resolves the
// actor once for the whole request.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for WebSocket upgrade requests
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("AuthMiddleware: JWT validation failed: %v", err)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		var user models.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil {
			log.Printf("AuthMiddleware: user %d not found: %v", claims.UserID, err)
			utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
			return
		}
		if !user.IsActive {
			utils.RespondWithError(w, http.StatusUnauthorized, "User account is inactive")
			return
		}

		actor, err := access.Resolve(database.DB, &user)
		if err != nil {
			log.Printf("AuthMiddleware: actor resolution failed: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve permissions")
			return
		}

		ctx := context.WithValue(r.Context(), "actor", actor)
		ctx = context.WithValue(ctx, "userID", user.ID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves the actor when a valid token is present but lets the
// request through as anonymous otherwise.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if claims, err := utils.ValidateJWT(tokenString); err == nil {
				var user models.User
				if err := database.DB.First(&user, claims.UserID).Error; err == nil {
					if actor, err := access.Resolve(database.DB, &user); err == nil {
						ctx := context.WithValue(r.Context(), "actor", actor)
						ctx = context.WithValue(ctx, "userID", user.ID)
						r = r.WithContext(ctx)
					}
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
