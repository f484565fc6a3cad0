package account

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/api"
	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/httputil"
	"github.com/elskow/account-service/internal/user"
)

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Surname    string    `json:"surname"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Surname:    u.Surname,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Mount registers the account routes on r.
func (h *Handler) Mount(r chi.Router, mw *auth.AuthMiddleware) {
	r.Post(api.User, h.Register)
	r.Get(api.User, h.ListUsers)
	r.Patch(api.UserVerification, h.VerifyEmail)
	r.Patch(api.UserChangeEmailConfirmation, h.ConfirmEmailChange)
	r.Post(api.AuthLogin, h.Login)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAccess)
		r.Patch(api.User, h.UpdateProfile)
		r.Delete(api.User, h.DeleteAccount)
		r.Get(api.UserMe, h.Me)
		r.Patch(api.UserChangePassword, h.ChangePassword)
		r.Patch(api.UserChangeEmail, h.ChangeEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRefresh)
		r.Post(api.AuthRefreshToken, h.RefreshToken)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	httputil.RespondJSON(w, newUserResponse(u), http.StatusCreated)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	httputil.RespondJSON(w, resp, http.StatusOK)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.VerifyEmail(r.Context(), r.URL.Query().Get(api.TokenQueryParam))
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	httputil.RespondJSON(w, newUserResponse(u), http.StatusOK)
}

func (h *Handler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.ConfirmEmailChange(r.Context(), r.URL.Query().Get(api.TokenQueryParam))
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	httputil.RespondJSON(w, newUserResponse(u), http.StatusOK)
}

// Login accepts the OAuth2 password form as well as a JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.RespondError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httputil.RespondError(w, httputil.ErrInvalidBody.Error(), http.StatusUnprocessableEntity)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if req.Username == "" || req.Password == "" {
		httputil.RespondError(w, "username and password are required", http.StatusUnprocessableEntity)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusUnauthorized)
		return
	}
	httputil.RespondJSON(w, pair, http.StatusOK)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	pair, err := h.service.Refresh(r.Context(), principal)
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusUnauthorized)
		return
	}
	httputil.RespondJSON(w, pair, http.StatusOK)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, newUserResponse(principal), http.StatusOK)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req ProfileInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), principal, req)
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	httputil.RespondJSON(w, newUserResponse(u), http.StatusOK)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req ChangePasswordInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	u, err := h.service.ChangePassword(r.Context(), principal, req)
	if err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	httputil.RespondJSON(w, newUserResponse(u), http.StatusOK)
}

func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req ChangeEmailInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.ChangeEmail(r.Context(), principal, req); err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	httputil.RespondMessage(w, "a confirmation email has been sent to the new address", http.StatusOK)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), principal); err != nil {
		h.respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	u, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		httputil.RespondError(w, err.Error(), http.StatusUnauthorized)
		return user.User{}, false
	}
	return u, true
}

// respondServiceError maps the error taxonomy onto HTTP statuses.
// tokenStatus is used for ErrInvalidToken, whose status depends on the route.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, tokenStatus int) {
	message := err.Error()
	var status int
	switch {
	case errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrDeliveryFailure):
		// transport details stay in the log
		message = ErrDeliveryFailure.Error()
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicateCredential):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrInvalidToken):
		status = tokenStatus
	case errors.Is(err, ErrNoFieldsToUpdate):
		status = http.StatusBadRequest
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		httputil.RespondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	httputil.RespondError(w, message, status)
}
