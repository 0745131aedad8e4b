package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/observability"
	"github.com/noah-isme/revia-go-api/internal/repository"
	"github.com/noah-isme/revia-go-api/internal/service"
	"github.com/noah-isme/revia-go-api/internal/utils"
)

// EvaluationHandler exposes score submission, read-back and summary endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. submitGuard wraps
// the mutation route with rate limiting.
func (h *EvaluationHandler) Register(router fiber.Router, submitGuard fiber.Handler) {
	router.Post("/reviews/:reviewId/projects/:projectId/courses/:courseId/scores", submitGuard, h.submit)
	router.Get("/reviews/:reviewId/projects/:projectId/courses/:courseId/scores", h.scores)
	router.Post("/reviews/:reviewId/projects/:projectId/summary", h.summary)
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	key, err := h.scoreContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitScoresRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.SubmitScores(c.Context(), key, actorFromContext(c), payload)
	if err != nil {
		observability.ScoreSubmissions().WithLabelValues("rejected").Inc()
		return h.handleError(c, err)
	}

	observability.ScoreSubmissions().WithLabelValues("accepted").Inc()
	return utils.SendSuccess(c, "scores submitted", response)
}

func (h *EvaluationHandler) scores(c *fiber.Ctx) error {
	key, err := h.scoreContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.Scores(c.Context(), key, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scores retrieved", records)
}

func (h *EvaluationHandler) summary(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProjectSummaryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	response, err := h.service.ProjectSummary(c.Context(), reviewID, projectID, payload.CourseIDs)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation summary retrieved", response)
}

func (h *EvaluationHandler) scoreContext(c *fiber.Ctx) (repository.ScoreContext, error) {
	reviewID, err := parseUintParam(c, "reviewId")
	if err != nil {
		return repository.ScoreContext{}, err
	}
	projectID, err := parseUintParam(c, "projectId")
	if err != nil {
		return repository.ScoreContext{}, err
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return repository.ScoreContext{}, err
	}

	return repository.ScoreContext{ReviewID: reviewID, ProjectID: projectID, CourseID: courseID}, nil
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var scoreErr *service.ScoreValidationError
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "review not found")
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found for project")
	case errors.Is(err, service.ErrProjectNotInReview):
		return utils.SendError(c, fiber.StatusBadRequest, "project is not part of the review")
	case errors.Is(err, service.ErrSubmitForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to submit scores for this course")
	case errors.As(err, &scoreErr):
		return utils.SendError(c, fiber.StatusBadRequest, scoreErr.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
