package common

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	epoch := uint64(4)
	RespondWithMeta(rec, http.StatusCreated, map[string]string{"id": "abc"}, &MetaInfo{RequestID: "req-1", Epoch: &epoch})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abc", body["data"].(map[string]interface{})["id"])
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "req-1", meta["request_id"])
	assert.Equal(t, float64(4), meta["epoch"])
}

func TestRespondBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondBytes(rec, http.StatusOK, "image/svg+xml", []byte("<svg/>"))
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg/>", rec.Body.String())
}

func TestParseJSONBody(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, ParseJSONBody(httptest.NewRecorder(), req, &v, 1024))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":"x"}`))
	assert.Error(t, ParseJSONBody(httptest.NewRecorder(), req, &v, 1024))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
	assert.Error(t, ParseJSONBody(httptest.NewRecorder(), req, &v, 16))
}

func TestSessionContext(t *testing.T) {
	_, ok := GetSessionID(context.Background())
	assert.False(t, ok)

	ctx := WithSessionID(context.Background(), "s-1")
	id, ok := GetSessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s-1", id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "hdr")
	assert.Equal(t, "hdr", ExtractRequestID(req))
}
