package voiceHandler

import (
	"CarePortalGolang/internal/api/voice"
	contextPkg "CarePortalGolang/pkg/context"
	"CarePortalGolang/pkg/handlerUtil"
	jwtPkg "CarePortalGolang/pkg/jwt"
	"CarePortalGolang/pkg/log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *VoiceHandler) ProcessTextCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing text command request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req voice.ProcessTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	reply, err := h.voiceService.ProcessTextCommand(c, userData, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_text_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, reply)
	}
}

func (h *VoiceHandler) ProcessClipCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing clip command request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	fileHeader, err := ctx.FormFile("audio_file")
	if err != nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidAudioFile, ctx.Path(), "process_clip_command")
	}

	req := voice.ProcessClipRequest{
		AudioFile: fileHeader,
		Context:   ctx.FormValue("context"),
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.utils.ValidateAudioFile(fileHeader); err != nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidAudioFile, ctx.Path(), "process_clip_command")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidAudioFile, ctx.Path(), "process_clip_command")
	}
	defer file.Close()

	reply, err := h.voiceService.ProcessClipCommand(c, userData, file, fileHeader.Filename, req.Context)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_clip_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, reply)
	}
}

func (h *VoiceHandler) GetInteractionHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	page, err := strconv.Atoi(ctx.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(ctx.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	items, total, err := h.voiceService.GetInteractionHistory(c, userData.ID, page, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_interaction_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"interactions": items,
			"total":        total,
			"page":         page,
			"limit":        limit,
		})
	}
}

func (h *VoiceHandler) GetSuggestions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := jwtPkg.GetUserLoginData(ctx); err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	opCtx := ctx.Query("context")
	if opCtx == "" {
		return errHandler.HandleValidationError(ctx, requestID, voice.ErrUnknownContext, ctx.Path())
	}

	resp, err := h.voiceService.GetSuggestions(c, opCtx, ctx.Query("transcript"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_suggestions")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *VoiceHandler) GetPageMappings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := jwtPkg.GetUserLoginData(ctx); err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	mappings, err := h.voiceService.GetPageMappings(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_page_mappings")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"mappings": mappings})
	}
}

func (h *VoiceHandler) CreatePageMapping(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}
	if userData.Role != "admin" && userData.Role != "owner" {
		return errHandler.Handle(ctx, requestID, voice.ErrPermissionDenied, ctx.Path(), "create_page_mapping")
	}

	var req voice.PageMappingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.voiceService.CreatePageMapping(c, req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_page_mapping")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, fiber.Map{"message": "Page mapping created"})
	}
}

func (h *VoiceHandler) UpdatePageMapping(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}
	if userData.Role != "admin" && userData.Role != "owner" {
		return errHandler.Handle(ctx, requestID, voice.ErrPermissionDenied, ctx.Path(), "update_page_mapping")
	}

	pageID := ctx.Params("page_id")
	if pageID == "" {
		return errHandler.HandleValidationError(ctx, requestID, voice.ErrPageMappingNotFound, ctx.Path())
	}

	var req voice.PageMappingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.voiceService.UpdatePageMapping(c, pageID, req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_page_mapping")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"message": "Page mapping updated"})
	}
}
