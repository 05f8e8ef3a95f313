package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/storage"
	"github.com/florentincondu/proiect-web-sub000/internal/tasks"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

const defaultAvailabilityWindow = 30 * 24 * time.Hour

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// HotelHandler handles the hotel catalogue, availability and image uploads.
type HotelHandler struct {
	hotels     services.IHotelService
	storage    storage.IS3Storage
	taskClient IAsynqClient
}

func NewHotelHandler(hotels services.IHotelService, storage storage.IS3Storage, taskClient IAsynqClient) *HotelHandler {
	return &HotelHandler{hotels: hotels, storage: storage, taskClient: taskClient}
}

type LocationRequest struct {
	Address string `json:"address" binding:"max=200"`
	City    string `json:"city" binding:"required,notblank,max=100"`
	Country string `json:"country" binding:"max=100"`
}

type HotelRequest struct {
	Name        string             `json:"name" binding:"required,notblank,max=200"`
	Description string             `json:"description" binding:"max=5000"`
	Location    LocationRequest    `json:"location"`
	Images      []string           `json:"images" binding:"omitempty,dive,url"`
	Amenities   []string           `json:"amenities" binding:"omitempty,dive,notblank"`
	Rooms       []models.Room      `json:"rooms" binding:"omitempty,dive"`
	Status      models.HotelStatus `json:"status" binding:"omitempty,oneof=active inactive"`
}

type HotelUpdateRequest struct {
	Name        *string             `json:"name" binding:"omitempty,notblank,max=200"`
	Description *string             `json:"description" binding:"omitempty,max=5000"`
	Location    *LocationRequest    `json:"location"`
	Images      []string            `json:"images" binding:"omitempty,dive,url"`
	Amenities   []string            `json:"amenities" binding:"omitempty,dive,notblank"`
	Rooms       []models.Room       `json:"rooms" binding:"omitempty,dive"`
	Status      *models.HotelStatus `json:"status" binding:"omitempty,oneof=active inactive"`
}

type HotelSearchQuery struct {
	Query    string  `form:"q" binding:"max=200"`
	City     string  `form:"city" binding:"max=100"`
	MinPrice float64 `form:"min_price" binding:"gte=0"`
	MaxPrice float64 `form:"max_price" binding:"gte=0"`
	Guests   int     `form:"guests" binding:"gte=0"`
}

type AvailabilityQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	RoomType string `form:"room_type"`
	CheckIn  string `form:"check_in"`
	CheckOut string `form:"check_out"`
	Rooms    int    `form:"rooms" binding:"gte=0"`
}

type UploadURLRequest struct {
	HotelID     utils.SixID `json:"hotel_id" binding:"required"`
	Filename    string      `json:"filename" binding:"required,notblank,max=200"`
	ContentType string      `json:"content_type" binding:"required"`
}

type ConfirmImageRequest struct {
	Key string `json:"key" binding:"required,notblank"`
}

// RoomAvailability answers whether a room type can be booked for a stay.
type RoomAvailability struct {
	HotelID     utils.SixID `json:"hotel_id"`
	RoomType    string      `json:"room_type"`
	CheckIn     time.Time   `json:"check_in"`
	CheckOut    time.Time   `json:"check_out"`
	Rooms       int         `json:"rooms"`
	Available   int         `json:"available"`
	IsAvailable bool        `json:"is_available"`
}

func (l LocationRequest) toModel() models.Location {
	return models.Location{
		Address: strings.TrimSpace(l.Address),
		City:    strings.TrimSpace(l.City),
		Country: strings.TrimSpace(l.Country),
	}
}

// Search handles GET /api/hotels
func (h *HotelHandler) Search(c *gin.Context) {
	var q HotelSearchQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	if q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "min_price must not exceed max_price"))
		return
	}
	result, err := h.hotels.Search(c.Request.Context(), services.HotelSearch{
		Query:    strings.TrimSpace(q.Query),
		City:     strings.TrimSpace(q.City),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Guests:   q.Guests,
	}, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/hotels/:id
func (h *HotelHandler) Get(c *gin.Context) {
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	hotel, err := h.hotels.GetPublic(c.Request.Context(), hotelID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

// Availability handles GET /api/hotels/:id/availability.
// With room_type, check_in and check_out it answers for one stay, otherwise it returns the calendar.
func (h *HotelHandler) Availability(c *gin.Context) {
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	var q AvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	ctx := c.Request.Context()

	if q.RoomType != "" {
		checkIn, ok := dateField(c, q.CheckIn, "check_in")
		if !ok {
			return
		}
		checkOut, ok := dateField(c, q.CheckOut, "check_out")
		if !ok {
			return
		}
		rooms := q.Rooms
		if rooms < 1 {
			rooms = 1
		}
		available, err := h.hotels.CheckAvailability(ctx, hotelID, q.RoomType, checkIn, checkOut, rooms)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, RoomAvailability{
			HotelID:     hotelID,
			RoomType:    q.RoomType,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			Rooms:       rooms,
			Available:   available,
			IsAvailable: available >= rooms,
		})
		return
	}

	from := models.TruncateDay(time.Now().UTC())
	if q.From != "" {
		if from, ok = dateField(c, q.From, "from"); !ok {
			return
		}
	}
	to := from.Add(defaultAvailabilityWindow)
	if q.To != "" {
		if to, ok = dateField(c, q.To, "to"); !ok {
			return
		}
	}
	if !to.After(from) {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "to must be after from"))
		return
	}
	days, err := h.hotels.GetAvailability(ctx, hotelID, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotel_id": hotelID, "days": days})
}

// Create handles POST /api/hotels
func (h *HotelHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req HotelRequest
	if !bindJSON(c, &req) {
		return
	}
	hotel, err := h.hotels.Create(c.Request.Context(), actor, services.HotelInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location.toModel(),
		Images:      req.Images,
		Amenities:   req.Amenities,
		Rooms:       req.Rooms,
		Status:      req.Status,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	log.Printf("Hotel %s created by %s", hotel.ID, actor.ID)
	c.JSON(http.StatusCreated, hotel)
}

// Update handles PUT /api/hotels/:id
func (h *HotelHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	var req HotelUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	upd := services.HotelUpdate{
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Amenities:   req.Amenities,
		Rooms:       req.Rooms,
		Status:      req.Status,
	}
	if req.Location != nil {
		loc := req.Location.toModel()
		upd.Location = &loc
	}
	hotel, err := h.hotels.Update(c.Request.Context(), actor, hotelID, upd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, hotel)
}

// Delete handles DELETE /api/hotels/:id
func (h *HotelHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	if err := h.hotels.Delete(c.Request.Context(), actor, hotelID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Hotel deleted"})
}

// UploadURL handles POST /api/uploads/hotel-image and returns a presigned PUT URL.
func (h *HotelHandler) UploadURL(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if !bindJSON(c, &req) {
		return
	}
	if !allowedImageTypes[req.ContentType] {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "Only JPEG and PNG images are accepted"))
		return
	}
	ctx := c.Request.Context()
	if _, err := h.hotels.AuthorizeManage(ctx, actor, req.HotelID); err != nil {
		_ = c.Error(err)
		return
	}
	url, key, err := h.storage.GeneratePresignedPutURL(ctx, actor.ID.String(), req.HotelID.String(), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload_url": url,
		"key":        key,
		"expires_in": int(storage.PresignExpiry.Seconds()),
	})
}

// ConfirmImage handles POST /api/hotels/:id/images once the client has uploaded to the presigned URL.
// The image is resized and attached to the hotel by the image worker.
func (h *HotelHandler) ConfirmImage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	hotelID, ok := idParam(c, "id", "hotel")
	if !ok {
		return
	}
	var req ConfirmImageRequest
	if !bindJSON(c, &req) {
		return
	}
	if !strings.HasPrefix(req.Key, "hotels/"+hotelID.String()+"/") {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "Image key does not belong to this hotel"))
		return
	}
	ctx := c.Request.Context()
	if _, err := h.hotels.AuthorizeManage(ctx, actor, hotelID); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := tasks.NewImageProcessTask(req.Key, hotelID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	info, err := h.taskClient.EnqueueContext(ctx, task)
	if err != nil {
		log.Printf("ERROR enqueuing image task for hotel %s key %s: %v", hotelID, req.Key, err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Image queued for processing", "task_id": info.ID})
}
