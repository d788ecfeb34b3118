package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"carparts/internal/middleware"
	"carparts/internal/model"
	"carparts/internal/service"
)

// FeedbackHandler handles public comments and contact messages.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// CommentRequest is a new public comment.
type CommentRequest struct {
	Name    string `json:"name" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

// CommentResponse is the public view of a comment.
type CommentResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// ContactRequest is a message to the shop.
type ContactRequest struct {
	Message string `json:"message" validate:"required"`
}

func toCommentResponses(comments []model.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, cm := range comments {
		out = append(out, CommentResponse{
			ID:        cm.ID,
			Name:      cm.Name,
			Comment:   cm.Comment,
			CreatedAt: cm.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// AddComment godoc
// @Summary Post a public comment
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /comments [post]
func (h *FeedbackHandler) AddComment(c echo.Context) error {
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("name and comment are required")
	}

	if _, err := h.feedbackService.AddComment(c.Request().Context(), req.Name, req.Comment); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Comment added successfully"})
}

// ListComments godoc
// @Summary List the most recent comments
// @Tags feedback
// @Produce json
// @Success 200 {array} CommentResponse
// @Router /comments [get]
func (h *FeedbackHandler) ListComments(c echo.Context) error {
	comments, err := h.feedbackService.ListComments(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toCommentResponses(comments))
}

// SubmitContact godoc
// @Summary Send a message to the shop
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Message"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /contact [post]
func (h *FeedbackHandler) SubmitContact(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("message is required")
	}

	if _, err := h.feedbackService.SubmitContactMessage(c.Request().Context(), middleware.CurrentPrincipal(c), req.Message); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Message sent successfully"})
}
