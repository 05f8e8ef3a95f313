package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/florentincondu/proiect-web-sub000/internal/api/handlers"
	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		JwtSecret:         "handler-test-secret",
		JwtTTL:            time.Hour,
		PasswordMinLength: 8,
	}
}

// newTestEngine returns an engine with the error middleware installed, as in production.
func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

// asActor stands in for AuthMiddleware.
func asActor(actor services.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, actor.ID)
		c.Set(middleware.ContextKeyRole, actor.Role)
		c.Next()
	}
}

func newActor(role models.Role) services.Actor {
	return services.Actor{ID: utils.NewSixID(), Role: role}
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}
