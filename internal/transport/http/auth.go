package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const participantKey ctxKey = iota

// ParticipantID returns the authenticated participant id from the request
// context, or "" if the auth middleware did not run.
func ParticipantID(ctx context.Context) string {
	id, _ := ctx.Value(participantKey).(string)
	return id
}

// ParticipantAuth resolves the participant identity issued by the external
// auth system. With a secret configured it expects a bearer JWT (HS256)
// and takes the subject claim; without one it falls back to the
// X-Participant-ID header for local development.
func ParticipantAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolveParticipant(r, secret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), participantKey, id)))
		})
	}
}

func resolveParticipant(r *http.Request, secret string) (string, error) {
	if secret == "" {
		if id := r.Header.Get("X-Participant-ID"); id != "" {
			return id, nil
		}
		return "", errMissingIdentity
	}

	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		// websocket clients cannot set headers from browsers; accept the
		// token as a query parameter there.
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return "", errMissingIdentity
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", errBadToken
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errBadToken
	}
	return sub, nil
}

var (
	errMissingIdentity = httpError("missing participant identity")
	errBadToken        = httpError("invalid token")
)

type httpError string

func (e httpError) Error() string { return string(e) }
