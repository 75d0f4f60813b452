package controllers

import (
	"errors"
	"net/http"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/ctx"
	"github.com/farmchain/farmchain/pkg/middleware"
	"github.com/farmchain/farmchain/pkg/session"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates the account and logs it in.
func (ac *AuthController) Register(c *ctx.Context) {
	var req requests.RegisterRequest
	if !c.BindJSON(&req) {
		return
	}

	user, err := ac.auth.Register(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	if err := startSession(c, user); err != nil {
		c.Fail(apperr.Internal(err))
		return
	}
	c.Message(http.StatusCreated, "Registration successful", user)
}

func (ac *AuthController) Login(c *ctx.Context) {
	var req requests.LoginRequest
	if !c.BindJSON(&req) {
		return
	}

	user, err := ac.auth.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		c.Fail(err)
		return
	}
	if err := startSession(c, user); err != nil {
		c.Fail(apperr.Internal(err))
		return
	}
	c.Message(http.StatusOK, "Login successful", map[string]any{"user": user})
}

func (ac *AuthController) Logout(c *ctx.Context) {
	if sess := session.FromCtx(c.R); sess != nil {
		if err := sess.Destroy(c.Context(), c.W); err != nil {
			c.Fail(apperr.Internal(err))
			return
		}
	}
	c.Message(http.StatusOK, "Logout successful", nil)
}

func (ac *AuthController) Me(c *ctx.Context) {
	user, err := ac.auth.Me(c.Context(), c.Identity())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// Token exchanges credentials for a bearer token.
func (ac *AuthController) Token(c *ctx.Context) {
	var req requests.LoginRequest
	if !c.BindJSON(&req) {
		return
	}

	token, user, err := ac.auth.IssueToken(c.Context(), req.Username, req.Password)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"token": token, "user": user})
}

// startSession moves the caller to a fresh session token holding the
// user's identity and writes the cookie.
func startSession(c *ctx.Context, user *models.User) error {
	sess := session.FromCtx(c.R)
	if sess == nil {
		return errors.New("session middleware not installed")
	}
	if err := sess.Regenerate(c.Context()); err != nil {
		return err
	}
	sess.Set(middleware.SessionUserID, user.ID)
	sess.Set(middleware.SessionRole, user.UserType.String())
	return sess.Save(c.Context(), c.W)
}
