package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/api/handlers"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/tasks"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

type hotelFixture struct {
	hotels  *MockHotelService
	storage *MockS3Storage
	queue   *MockAsynqClient
	handler *handlers.HotelHandler
}

func newHotelFixture() *hotelFixture {
	f := &hotelFixture{
		hotels:  new(MockHotelService),
		storage: new(MockS3Storage),
		queue:   new(MockAsynqClient),
	}
	f.handler = handlers.NewHotelHandler(f.hotels, f.storage, f.queue)
	return f
}

func TestHotelHandler_Search(t *testing.T) {
	f := newHotelFixture()
	r := newTestEngine()
	r.GET("/api/hotels", f.handler.Search)

	f.hotels.On("Search", mock.Anything, services.HotelSearch{City: "Brasov", MinPrice: 100, MaxPrice: 400, Guests: 2}, services.Page{Page: 1, Limit: services.DefaultPageSize}).
		Return(&services.PagedResult[models.Hotel]{Items: []models.Hotel{{Name: "Aro Palace"}}, Total: 1, Page: 1, Limit: services.DefaultPageSize}, nil)

	w := doRequest(r, http.MethodGet, "/api/hotels?city=Brasov&min_price=100&max_price=400&guests=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, w)["total"])

	w = doRequest(r, http.MethodGet, "/api/hotels?min_price=500&max_price=100", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.hotels.AssertNumberOfCalls(t, "Search", 1)
}

func TestHotelHandler_Get_NotFound(t *testing.T) {
	f := newHotelFixture()
	r := newTestEngine()
	r.GET("/api/hotels/:id", f.handler.Get)

	id := utils.NewSixID()
	f.hotels.On("GetPublic", mock.Anything, id).Return(nil, mongo.ErrNoDocuments)

	w := doRequest(r, http.MethodGet, "/api/hotels/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/hotels/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid hotel ID", decodeBody(t, w)["message"])
}

func TestHotelHandler_Availability_ForStay(t *testing.T) {
	f := newHotelFixture()
	r := newTestEngine()
	r.GET("/api/hotels/:id/availability", f.handler.Availability)

	id := utils.NewSixID()
	checkIn := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC)
	f.hotels.On("CheckAvailability", mock.Anything, id, "double", checkIn, checkOut, 2).Return(1, nil)

	w := doRequest(r, http.MethodGet, "/api/hotels/"+id.String()+"/availability?room_type=double&check_in=2026-11-01&check_out=2026-11-04&rooms=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.RoomAvailability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Available)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, 2, resp.Rooms)
}

func TestHotelHandler_Availability_Calendar(t *testing.T) {
	f := newHotelFixture()
	r := newTestEngine()
	r.GET("/api/hotels/:id/availability", f.handler.Availability)

	id := utils.NewSixID()
	from := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	days := []models.AvailabilityDay{{Date: from}, {Date: from.AddDate(0, 0, 1)}}
	f.hotels.On("GetAvailability", mock.Anything, id, from, to).Return(days, nil)

	w := doRequest(r, http.MethodGet, "/api/hotels/"+id.String()+"/availability?from=2026-11-01&to=2026-11-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody(t, w)["days"], 2)

	w = doRequest(r, http.MethodGet, "/api/hotels/"+id.String()+"/availability?from=2026-11-03&to=2026-11-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/hotels/"+id.String()+"/availability?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid from", decodeBody(t, w)["message"])
}

func TestHotelHandler_Create(t *testing.T) {
	f := newHotelFixture()
	host := newActor(models.RoleHost)
	r := newTestEngine()
	r.POST("/api/hotels", asActor(host), f.handler.Create)

	created := &models.Hotel{Base: models.NewBase(), Name: "Casa Verde", OwnerID: &host.ID}
	f.hotels.On("Create", mock.Anything, host, mock.MatchedBy(func(in services.HotelInput) bool {
		return in.Name == "Casa Verde" && in.Location.City == "Sibiu" && len(in.Rooms) == 1
	})).Return(created, nil)

	w := doRequest(r, http.MethodPost, "/api/hotels", map[string]interface{}{
		"name":     "Casa Verde",
		"location": map[string]string{"city": " Sibiu "},
		"rooms":    []map[string]interface{}{{"type": "double", "capacity": 2, "price": 250, "count": 4}},
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f.hotels.AssertExpectations(t)
}

func TestHotelHandler_Create_InvalidRooms(t *testing.T) {
	f := newHotelFixture()
	r := newTestEngine()
	r.POST("/api/hotels", asActor(newActor(models.RoleAdmin)), f.handler.Create)

	w := doRequest(r, http.MethodPost, "/api/hotels", map[string]interface{}{
		"name":     "Casa Verde",
		"location": map[string]string{"city": "Sibiu"},
		"rooms":    []map[string]interface{}{{"type": "double", "capacity": 0, "price": 250, "count": 4}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "capacity")

	w = doRequest(r, http.MethodPost, "/api/hotels", map[string]interface{}{"name": "No City"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "city failed on 'required'")
	f.hotels.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHotelHandler_Update_Forbidden(t *testing.T) {
	f := newHotelFixture()
	host := newActor(models.RoleHost)
	r := newTestEngine()
	r.PUT("/api/hotels/:id", asActor(host), f.handler.Update)

	id := utils.NewSixID()
	f.hotels.On("Update", mock.Anything, host, id, mock.Anything).Return(nil, services.ErrForbidden)

	w := doRequest(r, http.MethodPut, "/api/hotels/"+id.String(), map[string]string{"name": "Mine Now"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHotelHandler_UploadURL(t *testing.T) {
	f := newHotelFixture()
	host := newActor(models.RoleHost)
	r := newTestEngine()
	r.POST("/api/uploads/hotel-image", asActor(host), f.handler.UploadURL)

	hotelID := utils.NewSixID()
	w := doRequest(r, http.MethodPost, "/api/uploads/hotel-image", map[string]string{
		"hotel_id": hotelID.String(), "filename": "lobby.gif", "content_type": "image/gif",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	key := "hotels/" + hotelID.String() + "/" + host.ID.String() + "/abc_lobby.jpg"
	f.hotels.On("AuthorizeManage", mock.Anything, host, hotelID).Return(&models.Hotel{Base: models.Base{ID: hotelID}}, nil)
	f.storage.On("GeneratePresignedPutURL", mock.Anything, host.ID.String(), hotelID.String(), "lobby.jpg", "image/jpeg").
		Return("https://s3.example.com/upload", key, nil)

	w = doRequest(r, http.MethodPost, "/api/uploads/hotel-image", map[string]string{
		"hotel_id": hotelID.String(), "filename": "lobby.jpg", "content_type": "image/jpeg",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, key, body["key"])
	assert.EqualValues(t, 900, body["expires_in"])
}

func TestHotelHandler_ConfirmImage(t *testing.T) {
	f := newHotelFixture()
	host := newActor(models.RoleHost)
	r := newTestEngine()
	r.POST("/api/hotels/:id/images", asActor(host), f.handler.ConfirmImage)

	hotelID := utils.NewSixID()
	w := doRequest(r, http.MethodPost, "/api/hotels/"+hotelID.String()+"/images", map[string]string{"key": "hotels/OTHERHOTEL/x.jpg"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	key := "hotels/" + hotelID.String() + "/" + host.ID.String() + "/abc_lobby.jpg"
	f.hotels.On("AuthorizeManage", mock.Anything, host, hotelID).Return(&models.Hotel{Base: models.Base{ID: hotelID}}, nil)
	f.queue.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.ImageTaskPayload
		return task.Type() == tasks.TypeImageProcess && json.Unmarshal(task.Payload(), &p) == nil &&
			p.S3Key == key && p.HotelID == hotelID.String()
	})).Return(&asynq.TaskInfo{ID: "task-1"}, nil).Once()

	w = doRequest(r, http.MethodPost, "/api/hotels/"+hotelID.String()+"/images", map[string]string{"key": key})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "task-1", decodeBody(t, w)["task_id"])

	f.queue.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()
	w = doRequest(r, http.MethodPost, "/api/hotels/"+hotelID.String()+"/images", map[string]string{"key": key})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
