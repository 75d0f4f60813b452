package controllers

import (
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/ctx"
	"github.com/farmchain/farmchain/pkg/storage"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) UpdateProfile(c *ctx.Context) {
	var req requests.ProfileRequest
	if !c.BindJSON(&req) {
		return
	}
	user, err := uc.users.UpdateProfile(c.Context(), c.Identity(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (uc *UserController) UploadProfileImage(c *ctx.Context) {
	f, ok := c.FormFile("image", storage.MaxImageBytes)
	if !ok {
		return
	}
	defer f.Close()

	user, err := uc.users.SetProfileImage(c.Context(), c.Identity(), f)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// Farmers lists farmer profiles, ?page=&perPage=.
func (uc *UserController) Farmers(c *ctx.Context) {
	users, p, err := uc.users.Farmers(c.Context(), c.QueryInt("page", 1), c.QueryInt("perPage", 15))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(users, p)
}
