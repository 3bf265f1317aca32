package authController

import (
	"errors"
	"pgstay/middleware"
	"pgstay/models"
	authValidator "pgstay/validators/auth"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const refreshCookieName = "refreshToken"

type Handler struct {
	DB           *gorm.DB
	Tokens       *middleware.TokenIssuer
	Sessions     middleware.SessionStore // nil keeps refresh tokens stateless
	Log          *logrus.Logger
	SaltRound    int
	SecureCookie bool
}

func (h *Handler) Register(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRegister").(*authValidator.RegisterRequest)
	db := h.DB.WithContext(c.UserContext())

	// Check if email already exists
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return middleware.MessageResponse(c, fiber.StatusConflict, "Email is already registered!")
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), h.SaltRound)
	if err != nil {
		return err
	}

	role := reqData.Role
	if role == "" {
		role = models.RoleStudent
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
		Role:     role,
		Phone:    reqData.Phone,
	}

	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.MessageResponse(c, fiber.StatusConflict, "Email is already registered!")
		}
		return err
	}

	h.Log.WithFields(logrus.Fields{"userId": newUser.ID, "role": newUser.Role}).Info("user registered")
	return h.startSession(c, fiber.StatusCreated, &newUser)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)

	var user models.User
	err := h.DB.WithContext(c.UserContext()).Where("email = ?", reqData.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Invalid credentials!")
	}
	if err != nil {
		return err
	}

	// Validate password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		h.Log.WithFields(logrus.Fields{"userId": user.ID, "ip": c.IP()}).Warn("failed login attempt")
		return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Invalid credentials!")
	}

	return h.startSession(c, fiber.StatusOK, &user)
}

// Refresh issues a new access token from the refresh cookie.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token == "" {
		return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Refresh token missing")
	}

	claims, err := h.Tokens.ParseRefresh(token)
	if err != nil {
		return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	if h.Sessions != nil {
		active, err := h.Sessions.Active(c.UserContext(), claims.ID, claims.UserID)
		if err != nil {
			return err
		}
		if !active {
			return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Session has ended, please log in again")
		}
	}

	var user models.User
	err = h.DB.WithContext(c.UserContext()).First(&user, claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}
	if err != nil {
		return err
	}

	accessToken, err := h.Tokens.AccessToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"accessToken": accessToken})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(refreshCookieName); token != "" && h.Sessions != nil {
		if claims, err := h.Tokens.ParseRefresh(token); err == nil {
			if err := h.Sessions.Revoke(c.UserContext(), claims.ID); err != nil {
				h.Log.WithError(err).Warn("failed to revoke refresh session")
			}
		}
	}

	c.Cookie(h.refreshCookie("", time.Unix(0, 0)))
	return middleware.MessageResponse(c, fiber.StatusOK, "Logged out")
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "User not found")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProfile").(*authValidator.UpdateProfileRequest)

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "User not found")
	}

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		user.Name = *reqData.Name
		updates["name"] = user.Name
	}
	if reqData.Phone != nil {
		user.Phone = *reqData.Phone
		updates["phone"] = user.Phone
	}
	if reqData.Avatar != nil {
		user.Avatar = *reqData.Avatar
		updates["avatar"] = user.Avatar
	}

	if err := h.DB.WithContext(c.UserContext()).Model(user).Updates(updates).Error; err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"user": user})
}

// SwitchRole changes the caller's role and returns an access token that carries it.
func (h *Handler) SwitchRole(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRole").(*authValidator.SwitchRoleRequest)

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "User not found")
	}

	if err := h.DB.WithContext(c.UserContext()).Model(user).Update("role", reqData.Role).Error; err != nil {
		return err
	}
	user.Role = reqData.Role

	accessToken, err := h.Tokens.AccessToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"user": user, "accessToken": accessToken})
}

// currentUser returns nil without error when the token's user no longer exists.
func (h *Handler) currentUser(c *fiber.Ctx) (*models.User, error) {
	var user models.User
	err := h.DB.WithContext(c.UserContext()).First(&user, middleware.UserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// startSession issues both tokens, records the refresh session and sets the cookie.
func (h *Handler) startSession(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, err := h.Tokens.AccessToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	refreshToken, jti, err := h.Tokens.RefreshToken(user.ID)
	if err != nil {
		return err
	}

	if h.Sessions != nil {
		if err := h.Sessions.Save(c.UserContext(), jti, user.ID, h.Tokens.RefreshTTL()); err != nil {
			return err
		}
	}

	c.Cookie(h.refreshCookie(refreshToken, time.Now().Add(h.Tokens.RefreshTTL())))
	return middleware.JsonResponse(c, status, fiber.Map{
		"user":        user,
		"accessToken": accessToken,
	})
}

func (h *Handler) refreshCookie(value string, expires time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if h.SecureCookie {
		// the SPAs live on another origin in production
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/auth",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: sameSite,
	}
}
