package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport"
	"github.com/Captainsparrow404/neuvii-backend/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Resolver accesscontrol.ScopeResolver
}

func NewHandler(svc ServiceAPI, resolver accesscontrol.ScopeResolver) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Resolver:    resolver,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Authenticate(dto)
	if err != nil {
		h.Logger.Warn("login failed", "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// ResetPasswordCheck backs the GET half of the reset flow: it validates
// the emailed temporary credential before the client shows the form.
func (h *Handler) ResetPasswordCheck(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	tempPassword := r.URL.Query().Get("temp_password")
	if email == "" || tempPassword == "" {
		h.WriteError(w, http.StatusBadRequest, "email and temp_password are required")
		return
	}

	if err := h.Service.VerifyTemporary(email, tempPassword); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"email": email, "status": "valid"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.ResetWithTemporary(dto)
	if err != nil {
		h.Logger.Warn("password reset failed", "error", err, "email", dto.Email)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangePassword(actor.UserID, dto); err != nil {
		h.Logger.Warn("password change failed", "error", err, "user_id", actor.UserID)
		h.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		switch err {
		case ErrInvalidToken, ErrTokenExpired:
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.HandleError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout is stateless on the server: the client discards its tokens.
// The token is still validated so the endpoint cannot be used to probe.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	if actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.Service.GetUser(actor.UserID)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	h.WriteJSON(w, http.StatusOK, user)
}

// AuthMiddleware validates the bearer token, loads the user with its
// permissions, resolves the actor's scope links and attaches the actor
// to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := h.Service.GetUser(userID)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		if !user.IsActive {
			h.WriteError(w, http.StatusForbidden, "account disabled")
			return
		}

		clinicID, therapistID, parentID, err := h.Resolver.ResolveScope(user.ID)
		if err != nil {
			h.Logger.Error("scope resolution failed", "error", err, "user_id", user.ID)
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		actor := accesscontrol.NewActor(user, clinicID, therapistID, parentID)
		ctx := internal.ContextWithActor(r.Context(), actor)
		ctx = logger.With(ctx, "user_id", actor.UserID, "role", actor.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
