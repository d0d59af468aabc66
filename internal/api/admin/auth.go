// auth.go implements HTTP handlers for staff login, self-registration, and
// email verification.
package admin

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/audit"
	"github.com/admin-console/admin-console/internal/auth"
	"github.com/admin-console/admin-console/internal/config"
	"github.com/admin-console/admin-console/internal/db/models"
	"github.com/admin-console/admin-console/internal/db/repositories"
	"github.com/admin-console/admin-console/internal/logstore"
	"github.com/admin-console/admin-console/internal/mail"
	"github.com/admin-console/admin-console/internal/middleware"
	"github.com/admin-console/admin-console/internal/telemetry"
)

// AuthHandlers handles authentication-related endpoints
type AuthHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder audit.Recorder
	mailer   mail.Sender
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB, recorder audit.Recorder, mailer mail.Sender) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
		mailer:   mailer,
	}
}

// LoginRequest is the credential payload for password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// recordLogin writes the curated action entry for one login attempt. Failed
// attempts carry only the submitted username; the issued token is never
// stored in clear.
func (h *AuthHandlers) recordLogin(c *gin.Context, user *models.User, username string, success bool, failureCode apperr.Code) {
	if h.recorder == nil {
		return
	}

	entry := &logstore.ActionLog{
		ActionType: logstore.ActionUserLogin,
		Username:   username,
		UserRole:   middleware.GuestRole,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Success:    success,
		InputData:  map[string]interface{}{"username": username},
	}
	if user != nil {
		entry.UserID = user.ID
		entry.Username = user.Username
		entry.FirstName = user.FirstName
		entry.LastName = user.LastName
		entry.UserRole = user.RoleType
	}
	if success {
		entry.OutputData = map[string]interface{}{"token": audit.RedactionMarker}
	} else {
		entry.ErrorMessage = string(failureCode)
	}
	h.recorder.RecordAction(entry)
}

// @Summary      Staff login
// @Description  Authenticate with username and password and receive a bearer token. Unknown users and wrong passwords are indistinguishable; accounts with an unverified email address are rejected with a distinct code.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "access_token, token_type, expires_in, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "INVALID_CREDENTIALS or EMAIL_NOT_VERIFIED"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates a staff user and issues a session token
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("username and password are required").WithCause(err))
			return
		}

		user, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}

		// A locked account fails the same way as a bad password so login
		// responses never confirm that a username exists.
		if user == nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
			telemetry.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			h.recordLogin(c, nil, req.Username, false, apperr.CodeInvalidCredentials)
			respondError(c, apperr.ErrInvalidCredentials)
			return
		}

		if h.cfg.Auth.RequireEmailVerification && !user.EmailVerified {
			telemetry.LoginAttemptsTotal.WithLabelValues("email_not_verified").Inc()
			h.recordLogin(c, user, req.Username, false, apperr.CodeEmailNotVerified)
			respondError(c, apperr.ErrEmailNotVerified)
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Username, auth.Role(user.RoleType), h.cfg.Auth.TokenExpiry)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to issue session token").WithCause(err))
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
		h.recordLogin(c, user, req.Username, true, "")

		expiry := h.cfg.Auth.TokenExpiry
		if expiry == 0 {
			expiry = time.Hour
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(expiry.Seconds()),
			"user":         user.Sanitize(),
		})
	}
}

// RegisterRequest is the self-registration payload. Username defaults to the
// email address when omitted.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// @Summary      Register staff account
// @Description  Create a staff account with the default (lowest-privilege) role. The account is committed first; if the verification email cannot be sent the account persists and the response carries EMAIL_SEND_FAILED.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterRequest  true  "Registration request"
// @Success      201  {object}  map[string]interface{}  "user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      409  {object}  map[string]interface{}  "EMAIL_ALREADY_EXISTS or USERNAME_ALREADY_EXISTS"
// @Failure      502  {object}  map[string]interface{}  "EMAIL_SEND_FAILED (account persisted)"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a new staff account and sends a verification email
// POST /api/v1/auth/register
func (h *AuthHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("email and a password of at least 8 characters are required").WithCause(err))
			return
		}
		if req.Username == "" {
			req.Username = req.Email
		}

		ctx := c.Request.Context()

		// Email uniqueness is checked before username so the two conflicts
		// stay distinguishable.
		existing, err := h.userRepo.GetUserByEmail(ctx, req.Email)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if existing != nil {
			respondError(c, apperr.ErrEmailAlreadyExists)
			return
		}

		existing, err = h.userRepo.GetUserByUsername(ctx, req.Username)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if existing != nil {
			respondError(c, apperr.ErrUsernameAlreadyExists)
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to hash password").WithCause(err))
			return
		}

		user := &models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			RoleType:     h.cfg.Auth.DefaultRole,
			IsActive:     true,
		}
		if err := h.userRepo.CreateUser(ctx, user); err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to create account").WithCause(err))
			return
		}

		if h.recorder != nil {
			h.recorder.RecordAction(&logstore.ActionLog{
				ActionType:   logstore.ActionUserRegistration,
				UserID:       user.ID,
				Username:     user.Username,
				FirstName:    user.FirstName,
				LastName:     user.LastName,
				UserRole:     user.RoleType,
				ResourceType: "users",
				ResourceID:   user.ID,
				IPAddress:    c.ClientIP(),
				UserAgent:    c.Request.UserAgent(),
				Success:      true,
				InputData:    map[string]interface{}{"email": user.Email, "username": user.Username},
			})
		}

		// The account is already committed; a failed send surfaces as a
		// distinguished error without rolling anything back. The caller can
		// request a fresh verification email later.
		if err := h.sendVerificationEmail(user); err != nil {
			respondError(c, apperr.ErrEmailSendFailed.WithCause(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":    user.Sanitize(),
			"message": "Account created. Check your email for a verification link.",
		})
	}
}

func (h *AuthHandlers) sendVerificationEmail(user *models.User) error {
	token, err := auth.GenerateVerificationToken(user.ID, user.Email, h.cfg.Auth.VerificationTokenExpiry)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s",
		h.cfg.Server.GetPublicURL(), url.QueryEscape(token))
	return h.mailer.SendVerificationEmail(user.Email, user.FullName(), verifyURL)
}

// VerifyEmailRequest carries the verification token from the emailed link.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// @Summary      Verify email address
// @Description  Redeem an email verification token. Session tokens are rejected here; a token for an already-verified account yields EMAIL_ALREADY_VERIFIED.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  VerifyEmailRequest  true  "Verification token"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "INVALID_VERIFICATION_TOKEN"
// @Failure      409  {object}  map[string]interface{}  "EMAIL_ALREADY_VERIFIED"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/verify-email [post]
// VerifyEmailHandler marks an email address as verified
// POST /api/v1/auth/verify-email
func (h *AuthHandlers) VerifyEmailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("token is required").WithCause(err))
			return
		}

		claims, err := auth.ValidateVerificationToken(req.Token)
		if err != nil {
			respondError(c, apperr.ErrInvalidVerificationToken.WithCause(err))
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		// A missing account or a changed email both invalidate the token;
		// neither detail is worth leaking.
		if user == nil || user.Email != claims.Email {
			respondError(c, apperr.ErrInvalidVerificationToken)
			return
		}
		if user.EmailVerified {
			respondError(c, apperr.ErrEmailAlreadyVerified)
			return
		}

		if err := h.userRepo.MarkEmailVerified(c.Request.Context(), user.ID); err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}

		if h.recorder != nil {
			h.recorder.RecordAction(&logstore.ActionLog{
				ActionType:   logstore.ActionEmailVerified,
				UserID:       user.ID,
				Username:     user.Username,
				FirstName:    user.FirstName,
				LastName:     user.LastName,
				UserRole:     user.RoleType,
				ResourceType: "users",
				ResourceID:   user.ID,
				IPAddress:    c.ClientIP(),
				UserAgent:    c.Request.UserAgent(),
				Success:      true,
			})
		}

		c.JSON(http.StatusOK, gin.H{"message": "Email address verified"})
	}
}

// @Summary      Get current user
// @Description  Return the authenticated staff account resolved from the bearer token.
// @Tags         Authentication
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the current authenticated user
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(middleware.ContextUser)
		if !ok {
			respondError(c, apperr.ErrUnauthorized)
			return
		}
		user, ok := v.(*models.User)
		if !ok || user == nil {
			respondError(c, apperr.ErrUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
	}
}
