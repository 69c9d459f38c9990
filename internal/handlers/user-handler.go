package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"study_admin_service/internal/common"
	"study_admin_service/internal/metrics"
	"study_admin_service/internal/models"
	"study_admin_service/internal/service"

	"github.com/gofiber/fiber/v3"
)

type UserHandler struct {
	userService *service.UserService
	jwtService  *service.JWTService
}

func NewUserHandler(userService *service.UserService, jwtService *service.JWTService) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtService:  jwtService,
	}
}

func (h *UserHandler) RegisterRoutes(app *fiber.App) {
	userGroup := app.Group("/studyadmin/users")

	userGroup.Post("/", h.CreateUser)
	userGroup.Post("/activate", h.ActivateAccount)
	userGroup.Put("/:id", h.UpdateUser)
	userGroup.Get("/", h.GetUsers)
	userGroup.Get("/:id", h.GetAdminDetails)
}

// callerID resolves the acting admin from the bearer token.
func callerID(c fiber.Ctx, jwtService *service.JWTService) (string, bool) {
	authHeader := c.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	adminUserID, err := jwtService.ValidateToken(token)
	if err != nil {
		log.Printf("Token validation failed: %v", err)
		return "", false
	}
	return adminUserID, true
}

// writeError maps service failures onto the response envelope. Anything that
// is not a known AppError is logged and reported as an application error.
func writeError(c fiber.Ctx, route string, err error) error {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		log.Printf("Unexpected error on %s: %v", route, err)
		appErr = common.ErrApplicationError
	}
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(appErr.Status)).Inc()
	return c.Status(appErr.Status).JSON(appErr)
}

func writeOK(c fiber.Ctx, route string, status int, payload any) error {
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	return c.Status(status).JSON(payload)
}

func unauthorized(c fiber.Ctx, route string) error {
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusUnauthorized)).Inc()
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid or missing token",
	})
}

func (h *UserHandler) CreateUser(c fiber.Ctx) error {
	const route = "create_user"

	superAdminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	var request models.UserRequest
	if err := c.Bind().Body(&request); err != nil {
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusBadRequest)).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.Email == "" {
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusBadRequest)).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}
	request.SuperAdminUserID = superAdminUserID

	log.Printf("User %s creating admin account for %s", superAdminUserID, request.Email)

	response, err := h.userService.CreateUser(c.Context(), &request)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusCreated, response)
}

func (h *UserHandler) UpdateUser(c fiber.Ctx) error {
	const route = "update_user"

	superAdminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	var request models.UserRequest
	if err := c.Bind().Body(&request); err != nil {
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusBadRequest)).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	request.UserID = c.Params("id")

	log.Printf("User %s updating admin account %s", superAdminUserID, request.UserID)

	response, err := h.userService.UpdateUser(c.Context(), &request, superAdminUserID)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}

func (h *UserHandler) GetUsers(c fiber.Ctx) error {
	const route = "get_users"

	adminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	response, err := h.userService.GetUsers(c.Context(), adminUserID)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}

func (h *UserHandler) GetAdminDetails(c fiber.Ctx) error {
	const route = "get_admin_details"

	adminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	targetID := c.Params("id")
	response, err := h.userService.GetAdminDetails(c.Context(), adminUserID, targetID)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}

// ActivateAccount is unauthenticated; the security code is the credential.
func (h *UserHandler) ActivateAccount(c fiber.Ctx) error {
	const route = "activate_account"

	var request models.ActivateRequest
	if err := c.Bind().Body(&request); err != nil {
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusBadRequest)).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.SecurityCode == "" || request.Password == "" {
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(fiber.StatusBadRequest)).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Security code and password are required",
		})
	}

	response, err := h.userService.ActivateAccount(c.Context(), &request)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}
