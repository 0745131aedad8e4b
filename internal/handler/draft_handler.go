package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/service"
	"github.com/noah-isme/revia-go-api/internal/utils"
)

// DraftHandler exposes the evaluator draft endpoints.
type DraftHandler struct {
	service service.DraftService
	logger  zerolog.Logger
}

// NewDraftHandler builds a draft handler instance.
func NewDraftHandler(service service.DraftService, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		service: service,
		logger:  logger.With().Str("component", "draft_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DraftHandler) Register(router fiber.Router) {
	router.Get("/reviews/:reviewId/projects/:projectId/courses/:courseId/draft", h.get)
	router.Post("/reviews/:reviewId/projects/:projectId/courses/:courseId/draft", h.save)
	router.Delete("/reviews/:reviewId/projects/:projectId/courses/:courseId/draft", h.clear)
}

func (h *DraftHandler) get(c *fiber.Ctx) error {
	key, err := h.draftKey(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), key)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft retrieved", response)
}

func (h *DraftHandler) save(c *fiber.Ctx) error {
	key, err := h.draftKey(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SaveDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.Save(c.Context(), key, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft saved", draft)
}

func (h *DraftHandler) clear(c *fiber.Ctx) error {
	key, err := h.draftKey(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Clear(c.Context(), key, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft cleared", nil)
}

// draftKey binds the draft to the authenticated evaluator; drafts are never
// addressable across users.
func (h *DraftHandler) draftKey(c *fiber.Ctx) (service.DraftKey, error) {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return service.DraftKey{}, err
	}
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return service.DraftKey{}, err
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return service.DraftKey{}, err
	}

	return service.DraftKey{
		ReviewID:    reviewID,
		ProjectID:   projectID,
		CourseID:    courseID,
		EvaluatorID: actorFromContext(c).ID,
	}, nil
}

func (h *DraftHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "review not found")
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrDraftForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to manage drafts for this course")
	case errors.Is(err, service.ErrEvaluationComplete):
		return utils.SendError(c, fiber.StatusConflict, "evaluation already completed")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
