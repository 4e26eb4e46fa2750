package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/coursecast/coursecast/models"
	"github.com/coursecast/coursecast/store"
	"github.com/coursecast/coursecast/youtube"
)

// mockRouter mounts the full route table against a mock Data API endpoint
// and a temp-dir token store.
func mockRouter(t *testing.T, api http.HandlerFunc) *mux.Router {
	t.Helper()

	if api == nil {
		api = func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	ts, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ts.Close() })

	catalog, err := youtube.NewCatalog(context.Background(), "test-key", option.WithEndpoint(srv.URL))
	require.NoError(t, err)

	broker := youtube.NewBroker("client-id", "client-secret", "https://cb.example.com/oauth", "", ts)
	uploader := youtube.NewUploader(broker, ts)
	lifecycle := youtube.NewLifecycle(broker)

	r := mux.NewRouter()
	RegisterRoutes(r, catalog, broker, uploader, lifecycle, "owner")

	return r
}

func doRequest(r *mux.Router, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchHandler_MissingQuery(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/search", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "GET", "/api/v1/youtube/search?q=%20%20", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_OK(t *testing.T) {
	r := mockRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			fmt.Fprint(w, `{"items":[{"id":{"videoId":"a1"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/videos"):
			fmt.Fprint(w, `{"items":[{"id":"a1","snippet":{"title":"Algebra"},"contentDetails":{"duration":"PT1M"},"statistics":{"viewCount":"7"}}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	w := doRequest(r, "GET", "/api/v1/youtube/search?q=algebra", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var videos []models.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 1)
	require.Equal(t, "a1", videos[0].ID)
	require.Equal(t, "Algebra", videos[0].Title)
}

func TestVideosHandler_MissingIDs(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/videos", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaylistHandler_MissingID(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/playlist", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthURLHandler(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/auth/url", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthUrlResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Url, "access_type=offline")
	require.Contains(t, resp.Url, "client-id")
}

func TestAuthCallbackHandler_MissingCode(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/auth/callback", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, val := range fields {
		require.NoError(t, writer.WriteField(name, val))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestUploadStream_NoFile(t *testing.T) {
	r := mockRouter(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "My Lesson",
		"description": "notes",
	}, "", "", "")

	w := doRequest(r, "POST", "/api/v1/youtube/upload/stream", body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "no video file found in form-data")
}

func TestUploadStream_NotMultipart(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "POST", "/api/v1/youtube/upload/stream", bytes.NewBufferString("{}"), "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectField(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		"title":         "Intro to Go",
		"description":   "lesson one",
		"privacyStatus": "private",
		"unknown":       "ignored",
	}, "", "", "")

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	mr, err := req.MultipartReader()
	require.NoError(t, err)

	params := youtube.UploadParams{}
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		collectField(&params, part)
	}

	require.Equal(t, "Intro to Go", params.Title)
	require.Equal(t, "lesson one", params.Description)
	require.Equal(t, "private", params.PrivacyStatus)
}

func TestCollectField_IgnoresUnknownPrivacy(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"privacyStatus": "secret"}, "", "", "")

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	mr, err := req.MultipartReader()
	require.NoError(t, err)

	params := youtube.UploadParams{}
	part, err := mr.NextPart()
	require.NoError(t, err)
	collectField(&params, part)

	require.Empty(t, params.PrivacyStatus)
}

func TestWriteUploadError_ReauthShape(t *testing.T) {
	w := httptest.NewRecorder()

	writeUploadError(w, "uid-1", &youtube.ReauthRequiredError{
		AuthURL: "https://accounts.example.com/consent",
		Cause:   errors.New("invalid_grant"),
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ReauthRequiredResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "REFRESH_TOKEN_INVALID", resp.Message)
	require.Equal(t, "reauth_required", resp.Reason)
	require.Equal(t, "https://accounts.example.com/consent", resp.AuthUrl)
	require.NotEmpty(t, resp.Error)
}

func TestWriteUploadError_Generic(t *testing.T) {
	w := httptest.NewRecorder()

	writeUploadError(w, "uid-1", &youtube.UploadError{Cause: errors.New("quota exceeded")})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "quota exceeded")
}

func TestStatusHandler_BlankID(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "GET", "/api/v1/youtube/videos/%20/status", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteHandler_BlankID(t *testing.T) {
	r := mockRouter(t, nil)

	w := doRequest(r, "DELETE", "/api/v1/youtube/videos/%20", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSplitIDs(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitIDs("a,b"))
	require.Equal(t, []string{"a", "b"}, splitIDs(" a , ,b, "))
	require.Empty(t, splitIDs(","))
}

func TestMaxResultsParam(t *testing.T) {
	req := httptest.NewRequest("GET", "/search?maxResults=7", nil)
	require.Equal(t, int64(7), maxResultsParam(req))

	req = httptest.NewRequest("GET", "/search", nil)
	require.Equal(t, int64(defaultMaxResults), maxResultsParam(req))

	req = httptest.NewRequest("GET", "/search?maxResults=abc", nil)
	require.Equal(t, int64(defaultMaxResults), maxResultsParam(req))

	req = httptest.NewRequest("GET", "/search?maxResults=-3", nil)
	require.Equal(t, int64(defaultMaxResults), maxResultsParam(req))
}
