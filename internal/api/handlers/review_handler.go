package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

type ReviewHandler struct {
	reviews services.IReviewService
}

func NewReviewHandler(reviews services.IReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type ReviewRequest struct {
	HotelID utils.SixID `json:"hotel_id" binding:"required"`
	Rating  int         `json:"rating" binding:"required,min=1,max=5"`
	Title   string      `json:"title" binding:"max=200"`
	Comment string      `json:"comment" binding:"required,notblank,max=2000"`
}

type ReviewResponseRequest struct {
	Text string `json:"text" binding:"required,notblank,max=2000"`
}

// Create handles POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), actor, services.ReviewInput{
		HotelID: req.HotelID,
		Rating:  req.Rating,
		Title:   strings.TrimSpace(req.Title),
		Comment: strings.TrimSpace(req.Comment),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListForHotel handles GET /api/hotels/:id/reviews
func (h *ReviewHandler) ListForHotel(c *gin.Context) {
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.reviews.ListForHotel(c.Request.Context(), hotelID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	reviewID, ok := idParam(c, "id", "review")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), actor, reviewID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Review deleted"})
}

// Respond handles POST /api/reviews/:id/response
func (h *ReviewHandler) Respond(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	reviewID, ok := idParam(c, "id", "review")
	if !ok {
		return
	}
	var req ReviewResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.Respond(c.Request.Context(), actor.ID, reviewID, strings.TrimSpace(req.Text))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, review)
}
