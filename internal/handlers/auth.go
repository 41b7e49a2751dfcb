package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/lifecycle"
	"marketplace/models"
)

const minPasswordLen = 8

type signUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	RealName    string  `json:"realName"`
	CompanyName *string `json:"companyName"`
	Phone       *string `json:"phone"`
}

func (req *signUpRequest) validate() error {
	var ve lifecycle.ValidationErrors
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.RealName = strings.TrimSpace(req.RealName)
	if _, err := mail.ParseAddress(req.Email); err != nil || req.Email == "" {
		ve.Add("email", "must be a valid email address")
	}
	if len(req.Password) < minPasswordLen {
		ve.Add("password", "must be at least 8 characters")
	}
	if req.Role != string(models.RoleClient) && req.Role != string(models.RoleSupplier) {
		ve.Add("role", "must be client or supplier")
	}
	if req.RealName == "" {
		ve.Add("realName", "is required")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

type authResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// SignUpHandler обрабатывает POST /api/auth/signup
func (h *Handler) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	profile := &models.UserProfile{
		ID:           h.newID(),
		Role:         models.Role(req.Role),
		Status:       models.UserPending,
		RealName:     req.RealName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		CompanyName:  req.CompanyName,
	}
	if err := h.Store.CreateProfile(r.Context(), profile); err != nil {
		if errors.Is(err, lifecycle.ErrConflict) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.Log.Info("user signed up", zap.String("user_id", profile.ID), zap.String("role", req.Role))
	writeJSON(w, http.StatusCreated, profile)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInHandler обрабатывает POST /api/auth/signin
func (h *Handler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.Store.GetProfileByEmail(r.Context(), req.Email)
	if errors.Is(err, lifecycle.ErrNotFound) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if profile.Status == models.UserRejected || profile.Status == models.UserSuspended {
		http.Error(w, "Account is "+string(profile.Status), http.StatusForbidden)
		return
	}

	token, err := h.Sessions.Create(r.Context(), profile.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: profile})
}

// SignOutHandler обрабатывает POST /api/auth/signout
func (h *Handler) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Destroy(r.Context(), sessionToken(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler возвращает профиль текущего пользователя
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

type updateMeRequest struct {
	RealName    *string `json:"realName"`
	CompanyName *string `json:"companyName"`
	Phone       *string `json:"phone"`
}

// UpdateMeHandler обрабатывает PATCH /api/me
func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user := *currentUser(r)
	if req.RealName != nil {
		name := strings.TrimSpace(*req.RealName)
		if name == "" {
			h.writeError(w, r, validationError("realName", "must not be empty"))
			return
		}
		user.RealName = name
	}
	if req.CompanyName != nil {
		user.CompanyName = req.CompanyName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if err := h.Store.UpdateProfile(r.Context(), &user); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &user)
}

// EnsureAdmin creates an approved admin profile for email unless a profile
// with that email already exists. It reports whether a profile was created.
func EnsureAdmin(ctx context.Context, store StorageInterface, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	existing, err := store.GetProfileByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return false, fmt.Errorf("%s is registered as %s", email, existing.Role)
		}
		return false, nil
	}
	if !errors.Is(err, lifecycle.ErrNotFound) {
		return false, err
	}
	if len(password) < minPasswordLen {
		return false, fmt.Errorf("admin password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	err = store.CreateProfile(ctx, &models.UserProfile{
		ID:           uuid.NewString(),
		Role:         models.RoleAdmin,
		Status:       models.UserApproved,
		RealName:     "Administrator",
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
