package handlers

import (
	"log"
	"strings"
	"study_admin_service/internal/service"

	"github.com/gofiber/fiber/v3"
)

type AppHandler struct {
	appService *service.AppService
	jwtService *service.JWTService
}

func NewAppHandler(appService *service.AppService, jwtService *service.JWTService) *AppHandler {
	return &AppHandler{
		appService: appService,
		jwtService: jwtService,
	}
}

func (h *AppHandler) RegisterRoutes(app *fiber.App) {
	appGroup := app.Group("/studyadmin/apps")

	appGroup.Get("/", h.GetApps)
	appGroup.Get("/:id/participants", h.GetAppParticipants)
}

// GetApps serves two shapes from one route: without the fields query it is
// the statistics listing scoped to the caller, with fields it is the raw
// catalog tree for super admins.
func (h *AppHandler) GetApps(c fiber.Ctx) error {
	const route = "get_apps"

	adminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	fields := c.Query("fields")
	if fields != "" {
		response, err := h.appService.GetAppsWithOptionalFields(c.Context(), adminUserID, strings.Split(fields, ","))
		if err != nil {
			return writeError(c, route, err)
		}
		return writeOK(c, route, fiber.StatusOK, response)
	}

	response, err := h.appService.GetApps(c.Context(), adminUserID)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}

func (h *AppHandler) GetAppParticipants(c fiber.Ctx) error {
	const route = "get_app_participants"

	adminUserID, ok := callerID(c, h.jwtService)
	if !ok {
		return unauthorized(c, route)
	}

	appID := c.Params("id")

	var excludeStatuses []string
	if raw := c.Query("excludeParticipantStudyStatus"); raw != "" {
		excludeStatuses = strings.Split(raw, ",")
	}

	log.Printf("User %s requesting participants of app %s", adminUserID, appID)

	response, err := h.appService.GetAppParticipants(c.Context(), appID, adminUserID, excludeStatuses)
	if err != nil {
		return writeError(c, route, err)
	}

	return writeOK(c, route, fiber.StatusOK, response)
}
