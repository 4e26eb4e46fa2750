package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/coursecast/coursecast/youtube"
)

const (
	methodGET    = "GET"
	methodPOST   = "POST"
	methodDELETE = "DELETE"

	defaultMaxResults = 5

	// cap on metadata field parts; the file part itself is streamed
	maxFieldBytes = 1 << 20
)

// RegisterRoutes registers all HTTP routes with the provided mux router.
func RegisterRoutes(r *mux.Router, catalog *youtube.Catalog, broker *youtube.Broker, uploader *youtube.Uploader, lifecycle *youtube.Lifecycle, ownerID string) {
	r.HandleFunc("/api/v1/youtube/search", searchHandler(catalog)).Methods(methodGET)
	r.HandleFunc("/api/v1/youtube/videos", videosHandler(catalog)).Methods(methodGET)
	r.HandleFunc("/api/v1/youtube/playlist", playlistHandler(catalog)).Methods(methodGET)

	r.HandleFunc("/api/v1/youtube/auth/url", authURLHandler(broker)).Methods(methodGET)
	r.HandleFunc("/api/v1/youtube/auth/callback", authCallbackHandler(broker, ownerID)).Methods(methodGET)

	r.HandleFunc("/api/v1/youtube/upload/stream", uploadStreamHandler(uploader, ownerID)).Methods(methodPOST)

	r.HandleFunc("/api/v1/youtube/videos/{id}/status", statusHandler(lifecycle, ownerID)).Methods(methodGET)
	r.HandleFunc("/api/v1/youtube/videos/{id}", deleteHandler(lifecycle, ownerID)).Methods(methodDELETE)
}

func maxResultsParam(r *http.Request) int64 {
	raw := r.URL.Query().Get("maxResults")
	if raw == "" {
		return defaultMaxResults
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxResults
	}

	return n
}

// @Summary Search videos
// @Description Search the remote catalog by free text.
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Param maxResults query int false "Maximum results"
// @Success 200 {array} models.Video
// @Failure 400 {object} server.ErrorJson "Missing query"
// @Router /youtube/search [get]
func searchHandler(catalog *youtube.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing query \"q\""))
			return
		}

		videos, err := catalog.Search(r.Context(), q, maxResultsParam(r))
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, videos)
	}
}

// @Summary Get video details
// @Description Batch-resolve a comma-joined id list into full video records.
// @Tags catalog
// @Produce json
// @Param ids query string true "Comma-joined video ids"
// @Success 200 {array} models.Video
// @Failure 400 {object} server.ErrorJson "Missing ids"
// @Router /youtube/videos [get]
func videosHandler(catalog *youtube.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("ids"))
		if raw == "" {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing \"ids\""))
			return
		}

		videos, err := catalog.Details(r.Context(), splitIDs(raw))
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, videos)
	}
}

// @Summary Expand a playlist
// @Description Resolve playlist membership to full video records.
// @Tags catalog
// @Produce json
// @Param id query string true "Playlist id"
// @Param maxResults query int false "Maximum results"
// @Success 200 {array} models.Video
// @Failure 400 {object} server.ErrorJson "Missing playlist id"
// @Router /youtube/playlist [get]
func playlistHandler(catalog *youtube.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing playlist \"id\""))
			return
		}

		videos, err := catalog.PlaylistVideos(r.Context(), id, maxResultsParam(r))
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, videos)
	}
}

type AuthUrlResp struct {
	Url string `json:"url"`
}

func authURLHandler(broker *youtube.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, AuthUrlResp{Url: broker.AuthURL()})
	}
}

func authCallbackHandler(broker *youtube.Broker, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		persisted, err := broker.ExchangeCode(r.Context(), code, ownerID)
		if err != nil {
			log.Error().Err(err).Msg("auth callback failed")
			http.Error(w, "failed to exchange code for token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !persisted {
			fmt.Fprintln(w, "YouTube connected, but no refresh token was granted; uploads may fail until you re-consent.")
			return
		}
		fmt.Fprintln(w, "YouTube connected. You can close this window.")
	}
}

type ReauthRequiredResp struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
	AuthUrl string `json:"authUrl"`
	Error   string `json:"error"`
}

// @Summary Stream-upload a video
// @Description Pipe a multipart video file straight to the remote service.
// @Tags upload
// @Accept mpfd
// @Produce json
// @Param file formData file true "Video file"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param privacyStatus formData string false "public, unlisted or private"
// @Success 200 {object} models.UploadResult
// @Failure 400 {object} server.ErrorJson "No file supplied"
// @Failure 401 {object} server.ReauthRequiredResp "Reauthorization required"
// @Failure 500 {object} server.ErrorJson "Upload failed"
// @Router /youtube/upload/stream [post]
func uploadStreamHandler(uploader *youtube.Uploader, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("expected multipart form-data: %w", err))
			return
		}

		uid := uuid.New().String()
		params := youtube.UploadParams{OwnerID: ownerID}

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Error().Err(err).Str("upload_id", uid).Msg("inbound multipart stream failed")
				writeErrorResponse(w, http.StatusInternalServerError, &youtube.StreamError{Cause: err})
				return
			}

			if part.FormName() == "file" {
				streamUpload(w, r, uploader, params, part, uid)
				return
			}

			collectField(&params, part)
		}

		// stream closed with zero file parts
		writeErrorResponse(w, http.StatusBadRequest, youtube.ErrNoFile)
	}
}

// collectField applies a metadata form field observed before the file part.
func collectField(params *youtube.UploadParams, part *multipart.Part) {
	val, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return
	}

	switch part.FormName() {
	case "title":
		params.Title = string(val)
	case "description":
		params.Description = string(val)
	case "privacyStatus":
		if youtube.ValidPrivacyStatus(string(val)) {
			params.PrivacyStatus = string(val)
		}
	}
}

func streamUpload(w http.ResponseWriter, r *http.Request, uploader *youtube.Uploader, params youtube.UploadParams, part *multipart.Part, uid string) {
	log.Info().Str("upload_id", uid).Str("filename", part.FileName()).Msg("handling video upload...")

	u, err := uploader.BeginUpload(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Str("upload_id", uid).Msg("failed to open upload stream")
		writeErrorResponse(w, http.StatusInternalServerError, fmt.Errorf("failed to create upload stream: %w", err))
		return
	}

	if _, err := io.Copy(u, part); err != nil {
		u.Abort(err)
	} else {
		u.Close()
	}

	result, err := u.Wait(r.Context())
	if err != nil {
		writeUploadError(w, uid, err)
		return
	}

	log.Info().Str("upload_id", uid).Str("video_id", result.VideoID).Msg("video upload completed")
	writeJSONResponse(w, http.StatusOK, result)
}

func writeUploadError(w http.ResponseWriter, uid string, err error) {
	var reauth *youtube.ReauthRequiredError
	if errors.As(err, &reauth) {
		log.Error().Err(err).Str("upload_id", uid).Msg("upload requires reauthorization")
		writeJSONResponse(w, http.StatusUnauthorized, ReauthRequiredResp{
			Message: "REFRESH_TOKEN_INVALID",
			Reason:  "reauth_required",
			AuthUrl: reauth.AuthURL,
			Error:   err.Error(),
		})
		return
	}

	log.Error().Err(err).Str("upload_id", uid).Msg("upload failed")
	writeErrorResponse(w, http.StatusInternalServerError, err)
}

// @Summary Get upload status
// @Description Poll upload and processing state for a video.
// @Tags lifecycle
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} models.AssetStatus
// @Failure 400 {object} server.ErrorJson "Missing video id"
// @Router /youtube/videos/{id}/status [get]
func statusHandler(lifecycle *youtube.Lifecycle, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(mux.Vars(r)["id"])
		if id == "" {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing video id"))
			return
		}

		status, err := lifecycle.Status(r.Context(), id, ownerID)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, status)
	}
}

type DeleteResp struct {
	Ok bool `json:"ok"`
}

// @Summary Delete a video
// @Description Delete a previously uploaded video.
// @Tags lifecycle
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} server.DeleteResp
// @Failure 400 {object} server.ErrorJson "Missing video id"
// @Router /youtube/videos/{id} [delete]
func deleteHandler(lifecycle *youtube.Lifecycle, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(mux.Vars(r)["id"])
		if id == "" {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing video id"))
			return
		}

		if err := lifecycle.Delete(r.Context(), id, ownerID); err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, DeleteResp{Ok: true})
	}
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
