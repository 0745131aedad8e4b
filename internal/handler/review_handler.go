package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/service"
	"github.com/noah-isme/revia-go-api/internal/utils"
)

// ReviewHandler exposes the review feed and per-review publication endpoints.
type ReviewHandler struct {
	visibility  service.VisibilityService
	publication service.PublicationService
	logger      zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(visibility service.VisibilityService, publication service.PublicationService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		visibility:  visibility,
		publication: publication,
		logger:      logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewHandler) Register(router fiber.Router, publishGuard fiber.Handler) {
	router.Get("", h.feed)
	router.Get("/:reviewId/publication", h.status)
	router.Post("/:reviewId/publication/publish", publishGuard, h.publish)
	router.Post("/:reviewId/publication/unpublish", publishGuard, h.unpublish)
}

func (h *ReviewHandler) feed(c *fiber.Ctx) error {
	items, err := h.visibility.VisibleReviews(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reviews retrieved", items)
}

func (h *ReviewHandler) status(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.visibility.PublicationStatus(c.Context(), reviewID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "publication status retrieved", status)
}

func (h *ReviewHandler) publish(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.publication.Publish(c.Context(), reviewID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review published", status)
}

func (h *ReviewHandler) unpublish(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.publication.Unpublish(c.Context(), reviewID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review unpublished", status)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "review not found")
	case errors.Is(err, service.ErrPublishForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to publish this review")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
