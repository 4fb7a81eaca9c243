package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"invoiceflow-backend/config"
	"invoiceflow-backend/middlewares"
	"invoiceflow-backend/models"
	"invoiceflow-backend/store"
)

// AuthController handles signup and signin against the user store.
type AuthController struct {
	cfg   *config.Config
	users store.UserStore
}

func NewAuthController(cfg *config.Config, users store.UserStore) *AuthController {
	return &AuthController{cfg: cfg, users: users}
}

type signupDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type signinDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *AuthController) Signup(c *fiber.Ctx) error {
	var dto signupDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	user := models.User{
		Name:  strings.TrimSpace(dto.Name),
		Email: strings.ToLower(strings.TrimSpace(dto.Email)),
		Role:  models.RoleUser,
	}
	if err := user.SetPassword(dto.Password); err != nil {
		return err
	}

	if err := a.users.CreateUser(c.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "email already exists",
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
	})
}

func (a *AuthController) Signin(c *fiber.Ctx) error {
	var dto signinDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	user, err := a.users.GetUserByEmail(c.Context(), strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid credentials",
			})
		}
		return err
	}
	if err := user.ComparePassword(dto.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	token, err := middlewares.GenerateJWT(a.cfg, user.Id, user.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token})
}
