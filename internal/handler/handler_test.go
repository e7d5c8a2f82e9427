package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"facturaia/internal/domain"
	"facturaia/internal/handler"
	"facturaia/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := handler.RegisterValidators(); err != nil {
		panic(err)
	}
}

func companyUser(role domain.UserRole) (domain.Actor, uuid.UUID) {
	companyID := uuid.New()
	return domain.Actor{UserID: uuid.New(), CompanyID: &companyID, Role: role}, companyID
}

func superAdmin() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleSuperAdmin}
}

func newContext(req *http.Request, actor *domain.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if actor != nil {
		c.Set(middleware.ContextKeyActor, *actor)
	}
	return c, w
}

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
