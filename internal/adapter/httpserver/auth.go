package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// Argon2Params defines parameters for Argon2id password hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

var defaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword creates an Argon2id hash of the password.
func HashPassword(password string) (string, error) {
	params := defaultArgon2Params
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)

	// Format: argon2id$iterations$memory$parallelism$salt$hash (base64 encoded)
	encoded := fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.Iterations,
		params.Memory,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword verifies a password against its Argon2id hash.
func VerifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false
	}
	iters, err1 := parseUint32(parts[1])
	mem, err2 := parseUint32(parts[2])
	par64, err3 := parseUint32(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	var par uint8
	if par64 > math.MaxUint8 {
		par = math.MaxUint8
	} else {
		par = uint8(par64)
	}
	actualHash := argon2.IDKey([]byte(password), salt, iters, mem, par, defaultArgon2Params.KeyLen)
	return subtle.ConstantTimeCompare(actualHash, expectedHash) == 1
}

// SessionUser is the identity carried inside the session cookie. The role
// rides along so admin routes don't need a user lookup on every request.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

const (
	sessionCookieName = "pf_session"
	sessionTTL        = 7 * 24 * time.Hour
)

// SessionManager issues and validates HMAC-signed session cookies.
type SessionManager struct {
	secret []byte
	cfg    config.Config
}

// NewSessionManager creates a new session manager.
func NewSessionManager(cfg config.Config) *SessionManager {
	return &SessionManager{secret: []byte(cfg.SessionSecret), cfg: cfg}
}

// CreateSession serializes the user into a signed cookie value.
// Format: base64(json payload):expiresUnix.signature
func (sm *SessionManager) CreateSession(u SessionUser) (string, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(sessionTTL).Unix()
	payload := base64.RawURLEncoding.EncodeToString(body) + ":" + strconv.FormatInt(expiresAt, 10)

	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(payload))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return payload + "." + signature, nil
}

// ValidateSession verifies the signature and expiry and returns the user.
func (sm *SessionManager) ValidateSession(sessionValue string) (SessionUser, error) {
	if sessionValue == "" {
		return SessionUser{}, fmt.Errorf("empty session value")
	}
	dot := strings.LastIndex(sessionValue, ".")
	if dot < 0 {
		return SessionUser{}, fmt.Errorf("invalid session format")
	}
	payload, signatureB64 := sessionValue[:dot], sessionValue[dot+1:]

	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(payload))
	expectedSignature := mac.Sum(nil)

	actualSignature, err := base64.URLEncoding.DecodeString(signatureB64)
	if err != nil {
		return SessionUser{}, fmt.Errorf("invalid signature encoding")
	}
	if !hmac.Equal(expectedSignature, actualSignature) {
		return SessionUser{}, fmt.Errorf("invalid session signature")
	}

	colon := strings.LastIndex(payload, ":")
	if colon < 0 {
		return SessionUser{}, fmt.Errorf("invalid payload format")
	}
	expiresAt, err := strconv.ParseInt(payload[colon+1:], 10, 64)
	if err != nil {
		return SessionUser{}, fmt.Errorf("invalid expiry")
	}
	if time.Now().After(time.Unix(expiresAt, 0)) {
		return SessionUser{}, fmt.Errorf("session expired")
	}

	body, err := base64.RawURLEncoding.DecodeString(payload[:colon])
	if err != nil {
		return SessionUser{}, fmt.Errorf("invalid payload encoding")
	}
	var u SessionUser
	if err := json.Unmarshal(body, &u); err != nil {
		return SessionUser{}, fmt.Errorf("invalid payload body")
	}
	return u, nil
}

// SetSessionCookie sets the session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, sessionValue string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   !sm.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL / time.Second),
	})
}

// ClearSessionCookie clears the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !sm.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sessionKey is an unexported context key type for the session user.
type sessionKey struct{}

// UserFrom returns the authenticated session user, if any.
func UserFrom(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(sessionKey{}).(SessionUser)
	return u, ok
}

// sessionUserFromRequest validates the cookie without enforcing presence.
func (sm *SessionManager) sessionUserFromRequest(r *http.Request) (SessionUser, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return SessionUser{}, false
	}
	u, err := sm.ValidateSession(cookie.Value)
	if err != nil {
		return SessionUser{}, false
	}
	return u, true
}

// WithSession attaches the session user to the context when a valid cookie
// is present, without requiring one.
func (sm *SessionManager) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := sm.sessionUserFromRequest(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRequired rejects requests without a valid session.
func (sm *SessionManager) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := sm.sessionUserFromRequest(r)
		if !ok {
			sm.ClearSessionCookie(w)
			writeError(w, r, fmt.Errorf("%w: login required", domain.ErrUnauthorized), nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminRequired rejects sessions without the admin role.
func (sm *SessionManager) AdminRequired(next http.Handler) http.Handler {
	return sm.AuthRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFrom(r.Context())
		if u.Role != domain.RoleAdmin {
			writeError(w, r, fmt.Errorf("%w: admin role required", domain.ErrForbidden), nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// parseUint32 parses a decimal string into uint32; returns error on failure.
func parseUint32(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse")
	}
	return uint32(x), nil
}
