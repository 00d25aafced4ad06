package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users      *auth.UserStore
	jwtService *auth.JWTService
}

func NewAuthHandlers(users *auth.UserStore, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		users:      users,
		jwtService: jwtService,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

func userResponse(u *auth.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			respondJSONError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, auth.ErrPasswordTooShort):
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		default:
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := h.setAuthCookies(w, user); err != nil {
		respondJSONError(w, "Failed to issue tokens", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, AuthResponse{
		User:    userResponse(user),
		Message: "Registration successful",
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.setAuthCookies(w, user); err != nil {
		respondJSONError(w, "Failed to issue tokens", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{
		User:    userResponse(user),
		Message: "Login successful",
	})
}

// Refresh exchanges a valid refresh token for a new token pair
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil || user == nil {
		respondJSONError(w, "Unknown user", http.StatusUnauthorized)
		return
	}

	if err := h.setAuthCookies(w, user); err != nil {
		respondJSONError(w, "Failed to issue tokens", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{
		User:    userResponse(user),
		Message: "Token refreshed",
	})
}

// Logout clears the auth cookies
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, "access_token")
	clearCookie(w, "refresh_token")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the signed-in user
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil || user == nil {
		respondJSONError(w, "Unknown user", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(user))
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, user *auth.User) error {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return err
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth",
		Expires:  refreshExpiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
