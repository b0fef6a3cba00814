package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mindbloom/internal/db"
	"mindbloom/internal/middleware"
	"mindbloom/internal/models"
	"mindbloom/internal/services"
)

// ResetTTL is how long a password reset token stays usable.
const ResetTTL = time.Hour

var validate = validator.New()

// UserRepository is the account storage the identity endpoints need.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmailIndex(ctx context.Context, index string) (*models.User, error)
	UserByID(ctx context.Context, id int) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	CreatePasswordReset(ctx context.Context, reset models.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (int, error)
}

// ResetNotifier delivers a reset token to the account owner.
type ResetNotifier func(ctx context.Context, email, token string)

type AuthHandler struct {
	users  UserRepository
	encSvc *services.EncryptionService
	auth   *middleware.AuthMiddleware
	logger *zap.Logger
	notify ResetNotifier
	now    func() time.Time
}

// NewAuthHandler builds the identity endpoints. A nil encSvc stores emails in
// plaintext and looks them up by their normalized form.
func NewAuthHandler(users UserRepository, encSvc *services.EncryptionService, auth *middleware.AuthMiddleware, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AuthHandler{users: users, encSvc: encSvc, auth: auth, logger: logger, now: time.Now}
	h.notify = h.logReset
	return h
}

// WithResetNotifier replaces the default notifier, which logs the token.
func (h *AuthHandler) WithResetNotifier(n ResetNotifier) *AuthHandler {
	if n != nil {
		h.notify = n
	}
	return h
}

// WithClock overrides the handler's time source.
func (h *AuthHandler) WithClock(now func() time.Time) *AuthHandler {
	if now != nil {
		h.now = now
	}
	return h
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type recoverRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (c *credentials) normalize()    { c.Email = services.NormalizeEmail(c.Email) }
func (c *recoverRequest) normalize() { c.Email = services.NormalizeEmail(c.Email) }

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid body")
	}
	if n, ok := v.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}

func (h *AuthHandler) blindIndex(email string) string {
	if h.encSvc == nil {
		return services.NormalizeEmail(email)
	}
	return h.encSvc.EmailBlindIndex(email)
}

func (h *AuthHandler) reveal(u *models.User) error {
	if h.encSvc == nil {
		return nil
	}
	return h.encSvc.DecryptUser(u)
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, u models.User) {
	token, info, err := h.auth.IssueToken(u.ID, h.now())
	if err != nil {
		h.logger.Error("issue token", zap.Int("user_id", u.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, AuthResponse{
		Token:     token,
		ExpiresAt: info.ExpiresAt.UTC().Format(time.RFC3339),
		User:      ToUserDTO(u),
	})
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse "Email already registered"
// @Router /auth/v1/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	email := c.Email

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	user := models.User{Email: email, EmailBlindIndex: email, PasswordHash: string(hashed)}
	if h.encSvc != nil {
		if err := h.encSvc.EncryptUser(&user); err != nil {
			h.logger.Error("encrypt user", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not create user")
			return
		}
	}
	if err := h.users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	user.Email = email

	h.logger.Info("user signed up", zap.Int("user_id", user.ID))
	h.issue(w, http.StatusCreated, user)
}

// Token godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errorResponse "Invalid credentials"
// @Router /auth/v1/token [post]
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UserByEmailIndex(r.Context(), h.blindIndex(c.Email))
	if err != nil {
		h.logger.Error("lookup user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.reveal(user); err != nil {
		h.logger.Error("decrypt user", zap.Int("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not decrypt user data")
		return
	}
	h.issue(w, http.StatusOK, *user)
}

// Logout revokes the presented session token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if info, ok := middleware.TokenFromContext(r.Context()); ok {
		h.auth.Denylist().Revoke(info.ID, info.ExpiresAt)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recover godoc
// @Summary Request a password reset
// @Description Always answers 202, whether or not the email is registered.
// @Tags auth
// @Accept json
// @Success 202
// @Router /auth/v1/recover [post]
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.issueReset(r.Context(), req.Email)
	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) issueReset(ctx context.Context, email string) {
	user, err := h.users.UserByEmailIndex(ctx, h.blindIndex(email))
	if err != nil {
		h.logger.Error("lookup user", zap.Error(err))
		return
	}
	if user == nil {
		return
	}

	token, err := newResetToken()
	if err != nil {
		h.logger.Error("generate reset token", zap.Error(err))
		return
	}
	reset := models.PasswordReset{
		TokenHash: hashResetToken(token),
		UserID:    user.ID,
		ExpiresAt: h.now().Add(ResetTTL),
	}
	if err := h.users.CreatePasswordReset(ctx, reset); err != nil {
		h.logger.Error("store reset token", zap.Int("user_id", user.ID), zap.Error(err))
		return
	}
	h.notify(ctx, email, token)
}

// Reset godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Success 204
// @Failure 400 {object} errorResponse "Token invalid or expired"
// @Router /auth/v1/reset [post]
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.users.ConsumePasswordReset(r.Context(), hashResetToken(req.Token), h.now())
	if err != nil {
		if errors.Is(err, db.ErrResetInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("consume reset token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), userID, string(hashed)); err != nil {
		h.logger.Error("update password", zap.Int("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not update password")
		return
	}
	h.logger.Info("password reset", zap.Int("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) logReset(_ context.Context, email, token string) {
	h.logger.Info("password reset requested", zap.String("email", email), zap.String("reset_token", token))
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashResetToken is the form kept in password_resets.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
