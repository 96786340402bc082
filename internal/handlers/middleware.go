package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserIDKeyType struct{}
type requestIDKeyType struct{}

const (
	profileCacheTTL = 15 * time.Minute
	renewAfter      = 15 * time.Minute
)

func AllowCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with a UUID, reusing X-Request-ID when the
// proxy in front already set one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKeyType{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKeyType{}).(string)
	return requestID
}

func userIDFrom(ctx context.Context) int64 {
	return ctx.Value(UserIDKeyType{}).(int64)
}

func tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie("JWT"); err == nil {
		return cookie.Value
	}

	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if found {
		return strings.TrimSpace(token)
	}
	return ""
}

// UserVerifier authenticates the caller by their JWT, makes sure they have
// a profile and passes their ID on through the request context.
func (h *Handler) UserVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenString := tokenFrom(r)
		if tokenString == "" {
			http.Error(w, "No jwt was provided", http.StatusUnauthorized)
			return
		}

		userToken, err := h.verifier.VerifyToken(tokenString)
		if err != nil {
			h.sugar.Debug(err)
			http.Error(w, "Couldn't verify JWT", http.StatusUnauthorized)
			return
		}

		// the first request of a user creates their profile
		key := fmt.Sprintf("profile_exists:%d", userToken.UserID)

		value, err := h.kv.Get(ctx, key)
		if err != nil {
			h.sugar.Warnf("Couldn't read profile cache of user ID [%d]: %v", userToken.UserID, err)
		}

		if value == "" {
			_, err := h.profiles.GetOrCreate(ctx, userToken.UserID)
			if err != nil {
				h.fail(w, r, err)
				return
			}

			err = h.kv.Set(ctx, key, "y", profileCacheTTL)
			if err != nil {
				h.sugar.Warnf("Couldn't cache profile of user ID [%d]: %v", userToken.UserID, err)
			}
		} else {
			h.sugar.Debugf("User ID [%d] was found in cache", userToken.UserID)
		}

		// renew JWT and cookie
		if userToken.IssuedAt != nil && time.Since(userToken.IssuedAt.Time) >= renewAfter {
			updatedCookie, err := h.verifier.CreateToken(userToken.Remember, userToken.UserID)
			if err != nil {
				h.sugar.Error(err)
				http.Error(w, "Couldn't renew cookie", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &updatedCookie)
		}

		ctx = context.WithValue(ctx, UserIDKeyType{}, userToken.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
