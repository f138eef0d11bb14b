package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmgr-api/internal/api/shared"
	"github.com/phrazzld/taskmgr-api/internal/config"
	"github.com/phrazzld/taskmgr-api/internal/platform/logger"
	"github.com/phrazzld/taskmgr-api/internal/service"
	"github.com/phrazzld/taskmgr-api/internal/service/auth"
)

// RefreshCookieName is the HttpOnly cookie holding the refresh token.
const RefreshCookieName = "refreshToken"

const refreshCookiePath = "/api/auth"

// AuthHandler handles signup, login, token refresh and signout.
type AuthHandler struct {
	userService   service.UserService
	jwtService    auth.JWTService
	refreshMaxAge time.Duration
	secureCookies bool
	logger        *slog.Logger
	timeFunc      func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	cfg config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:   userService,
		jwtService:    jwtService,
		refreshMaxAge: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		secureCookies: cfg.SecureCookies,
		logger:        logger.With(slog.String("component", "auth_handler")),
		timeFunc:      time.Now,
	}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, SignupResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, GetSafeErrorMessage(err), err,
				shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	tokens, ok := h.issueTokens(w, r, user.ID)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		User:         userToResponse(user),
	})
}

// RefreshToken handles POST /api/auth/refresh. The presented refresh token
// is revoked and a new pair is issued.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	token, err := h.presentedRefreshToken(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), token)
	if err != nil {
		if MapErrorToStatusCode(err) == http.StatusUnauthorized {
			h.clearRefreshCookie(w)
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, GetSafeErrorMessage(err), err,
				shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	if err := h.jwtService.RevokeRefreshToken(r.Context(), claims); err != nil {
		log.Error("failed to revoke rotated refresh token", "error", err, "user_id", claims.UserID)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to refresh token", err)
		return
	}

	tokens, ok := h.issueTokens(w, r, claims.UserID)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tokens)
}

// Signout handles POST /api/auth/signout. A valid presented refresh token is
// revoked; the cookie is cleared either way.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if token, err := h.presentedRefreshToken(w, r); err == nil {
		claims, err := h.jwtService.ValidateRefreshToken(r.Context(), token)
		if err == nil {
			if err := h.jwtService.RevokeRefreshToken(r.Context(), claims); err != nil {
				log.Error("failed to revoke refresh token on signout", "error", err, "user_id", claims.UserID)
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to sign out", err)
				return
			}
		} else {
			log.Debug("signout with unusable refresh token", "error", err)
		}
	}

	h.clearRefreshCookie(w)
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Signed out successfully"})
}

// issueTokens generates an access/refresh pair for userID and sets the
// refresh cookie. On failure it writes a 500 and returns false.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (RefreshTokenResponse, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	access, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		log.Error("failed to generate access token", "error", err, "user_id", userID)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return RefreshTokenResponse{}, false
	}

	refresh, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		log.Error("failed to generate refresh token", "error", err, "user_id", userID)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return RefreshTokenResponse{}, false
	}

	h.setRefreshCookie(w, refresh)

	expiresAt := h.timeFunc().Add(h.jwtService.AccessTokenLifetime()).UTC().Format(time.RFC3339)
	return RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, true
}

// presentedRefreshToken reads the refresh token from the cookie, falling
// back to the JSON body.
func (h *AuthHandler) presentedRefreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		return "", err
	}
	if req.RefreshToken == "" {
		return "", auth.ErrMissingToken
	}
	return req.RefreshToken, nil
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.refreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
