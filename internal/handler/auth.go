package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/utils"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

// UserStore is the user persistence used by the user endpoints;
// *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByRefreshHash(ctx context.Context, hash string) (model.User, error)
	SetTokens(ctx context.Context, id, access, refreshHash, loginWith string) error
	SetAccessToken(ctx context.Context, id, access string) error
	ClearTokens(ctx context.Context, id string) error
	UpdateSocial(ctx context.Context, id, username, socialID, loginWith string) error
	UpdateProfile(ctx context.Context, id, username, email string, phone *string, image string) error
	SetRecentCities(ctx context.Context, id string, cities []string) error
}

// UserHandler bundles dependencies for the user account endpoints.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, users UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type signUpReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleReq struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	SocialMediaID string `json:"socialMediaId"`
}

// tokenPair is what sign-up, sign-in and social sign-in hand back.  The
// refresh token is returned raw once; only its digest is stored.
type tokenPair struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// issue creates an access token and a fresh refresh token for subject.
func issue(secret, subject, role, kind string, ttlMin, refreshDays int) (utils.AccessToken, utils.RefreshToken, error) {
	access, err := utils.NewAccessToken(secret, subject, role, kind, ttlMin)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	refresh, err := utils.NewRefreshToken(refreshDays)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	return access, refresh, nil
}

// startSession issues a token pair for u and stores it as the only valid
// one, revoking whatever u held before.
func (h *UserHandler) startSession(ctx context.Context, u model.User, loginWith string) (tokenPair, error) {
	access, refresh, err := issue(h.Cfg.JWTSecret, u.ID, u.Role, utils.KindUser, h.Cfg.AccessTTLMin, h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	if err := h.Users.SetTokens(ctx, u.ID, access.Token, utils.HashRefreshRaw(refresh.Raw), loginWith); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Success: true, Token: access.Token, RefreshToken: refresh.Raw}, nil
}

// SignUp creates an email account and signs it in.
func (h *UserHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if r := validation.Check(validation.CreateUser, validation.Fields{
		"name": req.Name, "email": req.Email, "password": req.Password,
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "sign-up: hash password", err)
	}
	u := model.User{Username: req.Name, Email: req.Email, PasswordHash: hash, Role: model.RoleUser, LoginWith: model.LoginWithEmail}
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "User already exists")
		}
		return internalError(c, "sign-up: create user", err)
	}
	pair, err := h.startSession(ctx, u, model.LoginWithEmail)
	if err != nil {
		return internalError(c, "sign-up: issue tokens", err)
	}
	pair.Message = "User signed up successfully"
	return c.JSON(http.StatusCreated, pair)
}

// SignIn verifies an email and password and rotates both tokens.
func (h *UserHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.SignInUser, validation.Fields{
		"email": strings.TrimSpace(req.Email), "password": req.Password,
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, "sign-in: load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	pair, err := h.startSession(ctx, u, model.LoginWithEmail)
	if err != nil {
		return internalError(c, "sign-in: issue tokens", err)
	}
	pair.Message = "User signed in successfully"
	return c.JSON(http.StatusOK, pair)
}

// GoogleSignIn signs in the account with the given email, creating it on
// first use.  The provider's identity token is not verified here.
func (h *UserHandler) GoogleSignIn(c echo.Context) error {
	var req googleReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if r := validation.Check(validation.GoogleSignIn, validation.Fields{
		"name": req.Name, "email": req.Email, "socialMediaId": req.SocialMediaID,
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		u = model.User{
			Username:      req.Name,
			Email:         req.Email,
			Role:          model.RoleUser,
			LoginWith:     model.LoginWithGoogle,
			SocialMediaID: req.SocialMediaID,
		}
		if err := h.Users.Create(ctx, &u); err != nil {
			return internalError(c, "google sign-in: create user", err)
		}
	case err != nil:
		return internalError(c, "google sign-in: load user", err)
	default:
		if err := h.Users.UpdateSocial(ctx, u.ID, req.Name, req.SocialMediaID, model.LoginWithGoogle); err != nil {
			return internalError(c, "google sign-in: update user", err)
		}
	}
	pair, err := h.startSession(ctx, u, model.LoginWithGoogle)
	if err != nil {
		return internalError(c, "google sign-in: issue tokens", err)
	}
	pair.Message = "User signed in successfully"
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken exchanges the bearer refresh token for a new access token.
// The refresh token itself is kept.
func (h *UserHandler) RefreshToken(c echo.Context) error {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Refresh token is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByRefreshHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid refresh")
		}
		return internalError(c, "refresh: load user", err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, utils.KindUser, h.Cfg.AccessTTLMin)
	if err != nil {
		return internalError(c, "refresh: issue access", err)
	}
	if err := h.Users.SetAccessToken(ctx, u.ID, access.Token); err != nil {
		return internalError(c, "refresh: save access", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Token refreshed", "token": access.Token})
}

// SignOut revokes both tokens of the caller.
func (h *UserHandler) SignOut(c echo.Context) error {
	id, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.SignOutUser, validation.Fields{"userId": id}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.ClearTokens(ctx, id); err != nil {
		return internalError(c, "sign-out", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User signed out successfully"})
}
