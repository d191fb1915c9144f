package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// AuthHandler serves sign-up, login and the caller's own profile.
type AuthHandler struct {
	authService  ports.AuthService
	mediaService ports.MediaService
}

func NewAuthHandler(authService ports.AuthService, mediaService ports.MediaService) *AuthHandler {
	return &AuthHandler{authService: authService, mediaService: mediaService}
}

// Register creates a new client or crafter account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the caller's account.
//
// @Summary      Current user
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe applies a partial profile update.
//
// @Summary      Update profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      422   {object}  errorResponse
// @Router       /v1/me [patch]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), actor.UserID, toProfileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UploadAvatar stores an image and sets it as the caller's avatar.
//
// @Summary      Upload avatar
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file"
// @Success      200   {object}  domain.User
// @Failure      413   {object}  errorResponse
// @Failure      415   {object}  errorResponse
// @Router       /v1/me/avatar [post]
func (h *AuthHandler) UploadAvatar(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	stored, err := uploadFormFile(c, h.mediaService)
	if err != nil {
		return err
	}

	user, err := h.authService.SetAvatar(c.Request().Context(), actor.UserID, fileURL(stored.ID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// RegisterAdmin creates a back-office account. Only super admins may call it;
// the service enforces that.
//
// @Summary      Register an admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerAdminRequest  true  "Admin account"
// @Success      201   {object}  domain.User
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/admins [post]
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req registerAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.RegisterAdmin(c.Request().Context(), actor, ports.AdminInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Phone:      req.Phone,
		Role:       domain.AdminRole(req.Role),
		Department: req.Department,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}
