package voiceHandler

import (
	voiceService "CarePortalGolang/internal/api/voice/service"
	"CarePortalGolang/internal/middleware"
	utilsPkg "CarePortalGolang/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	utils        utilsPkg.IUtils
	voiceService voiceService.IVoiceService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	utils utilsPkg.IUtils,
	vs voiceService.IVoiceService,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		utils:        utils,
		voiceService: vs,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	voice := srv.Group("/voice")

	// All voice endpoints require authentication
	voice.Use(h.middleware.NewTokenMiddleware)

	// Live push-to-talk stream
	voice.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	voice.Get("/stream", websocket.New(h.StreamVoice))

	// One-shot command processing
	voice.Post("/command", h.ProcessTextCommand)
	voice.Post("/clip", h.ProcessClipCommand)

	// Interaction history and suggestions
	voice.Get("/history", h.GetInteractionHistory)
	voice.Get("/suggestions", h.GetSuggestions)

	// Page mapping administration
	mappings := voice.Group("/mappings")
	mappings.Get("/", h.GetPageMappings)
	mappings.Post("/", h.CreatePageMapping)
	mappings.Put("/:page_id", h.UpdatePageMapping)
}
