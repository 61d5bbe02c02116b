package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/models"
)

type responseEnvelope struct {
	Data  interface{} `json:"data"`
	Error *struct {
		Code string `json:"code"`
		Kind string `json:"kind"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func (e responseEnvelope) field(key string) interface{} {
	if m, ok := e.Data.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newContext(method, target string, body interface{}, actor *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if actor != nil {
		c.Set(middleware.ContextUserKey, actor)
	}
	return c, rec
}

func headNurseClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "head-1", Role: models.RoleHeadNurse}
}

func nurseClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleNurse}
}
