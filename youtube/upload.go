package youtube

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	yt "google.golang.org/api/youtube/v3"

	"github.com/coursecast/coursecast/models"
)

// Privacy statuses accepted by the remote service.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// DefaultTitle is published when the caller supplies none.
const DefaultTitle = "Lesson Upload"

// ValidPrivacyStatus reports whether s is one of the accepted statuses.
func ValidPrivacyStatus(s string) bool {
	return s == PrivacyPublic || s == PrivacyUnlisted || s == PrivacyPrivate
}

// UploadParams describes one upload. Zero values fall back to DefaultTitle
// and PrivacyUnlisted.
type UploadParams struct {
	Title         string
	Description   string
	PrivacyStatus string
	OwnerID       string
}

func (p UploadParams) withDefaults() UploadParams {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if !ValidPrivacyStatus(p.PrivacyStatus) {
		p.PrivacyStatus = PrivacyUnlisted
	}
	return p
}

// Uploader bridges an inbound byte stream into an outbound upload without
// intermediate buffering. Each BeginUpload produces exactly one terminal
// outcome: success, reauth-required, upload-failed, or stream-error.
type Uploader struct {
	broker *Broker
	store  TokenStore

	// newService is the Broker by default; tests swap it for a client
	// pointed at a mock endpoint.
	newService func(ctx context.Context, ownerID string) (*yt.Service, error)
}

func NewUploader(b *Broker, ts TokenStore) *Uploader {
	return &Uploader{
		broker:     b,
		store:      ts,
		newService: b.Service,
	}
}

// Upload is the handle for one in-flight upload. Bytes written to it are
// forwarded to the outbound request as the transport accepts them, so
// backpressure propagates to the producer.
type Upload struct {
	w    *io.PipeWriter
	once sync.Once
	done chan struct{}

	result *models.UploadResult
	err    error
}

func (u *Upload) Write(p []byte) (int, error) {
	return u.w.Write(p)
}

// Close signals end of the inbound stream; the outbound request then
// settles and Wait unblocks.
func (u *Upload) Close() error {
	return u.w.Close()
}

// Abort tears down the upload after an inbound stream failure. The
// outbound request is not left dangling: its body read fails immediately.
func (u *Upload) Abort(cause error) {
	u.finish(nil, &StreamError{Cause: cause})
	u.w.CloseWithError(cause)
}

// finish records the terminal outcome. The once guard makes a late
// completion or failure after Abort a no-op.
func (u *Upload) finish(result *models.UploadResult, err error) {
	u.once.Do(func() {
		u.result = result
		u.err = err
		close(u.done)
	})
}

// Wait blocks until the upload settles. A context cancellation aborts the
// upload and reports it as a stream error unless a terminal outcome had
// already been recorded.
func (u *Upload) Wait(ctx context.Context) (*models.UploadResult, error) {
	select {
	case <-u.done:
	case <-ctx.Done():
		u.Abort(ctx.Err())
		<-u.done
	}
	return u.result, u.err
}

// BeginUpload acquires a live credential and opens the outbound upload.
// It returns immediately with the writable handle; the caller pipes the
// inbound stream into it and then calls Wait.
func (up *Uploader) BeginUpload(ctx context.Context, p UploadParams) (*Upload, error) {
	p = p.withDefaults()

	svc, err := up.newService(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	u := &Upload{w: pw, done: make(chan struct{})}

	go up.run(ctx, svc, p, pr, u)

	return u, nil
}

func (up *Uploader) run(ctx context.Context, svc *yt.Service, p UploadParams, pr *io.PipeReader, u *Upload) {
	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       p.Title,
			Description: p.Description,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: p.PrivacyStatus,
		},
	}

	res, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(pr).
		Context(ctx).
		Do()
	if err != nil {
		// record the outcome before unblocking the producer, so the
		// abort it issues on its write error cannot win the race and
		// relabel a credential failure as a stream error
		up.fail(p.OwnerID, u, err)
		pr.CloseWithError(err)
		return
	}

	result := &models.UploadResult{
		VideoID:       res.Id,
		Title:         p.Title,
		Description:   p.Description,
		PrivacyStatus: p.PrivacyStatus,
		WatchURL:      WatchURL(res.Id),
		EmbedURL:      EmbedURL(res.Id),
	}
	if res.Snippet != nil {
		result.Title = res.Snippet.Title
		result.Description = res.Snippet.Description
	}
	if res.Status != nil && res.Status.PrivacyStatus != "" {
		result.PrivacyStatus = res.Status.PrivacyStatus
	}

	log.Info().Str("video_id", res.Id).Str("owner_id", p.OwnerID).Msg("upload completed")
	u.finish(result, nil)
}

func (up *Uploader) fail(ownerID string, u *Upload, err error) {
	if IsInvalidGrant(err) {
		// best-effort: a clear failure must not mask the original error
		if cerr := up.store.ClearRefreshToken(ownerID); cerr != nil {
			log.Warn().Err(cerr).Str("owner_id", ownerID).Msg("failed to clear invalid refresh token")
		}
		log.Error().Err(err).Str("owner_id", ownerID).Msg("upload rejected, reauthorization required")
		u.finish(nil, &ReauthRequiredError{AuthURL: up.broker.AuthURL(), Cause: err})
		return
	}

	log.Error().Err(err).Str("owner_id", ownerID).Msg("upload failed")
	u.finish(nil, &UploadError{Cause: err})
}

// UploadFile publishes a video from a local file path, piping it through
// the same streaming pipeline.
func (up *Uploader) UploadFile(ctx context.Context, path string, p UploadParams) (*models.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := up.BeginUpload(ctx, p)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(u, f); err != nil {
		u.Abort(err)
	} else {
		u.Close()
	}

	return u.Wait(ctx)
}

// WatchURL derives the public watch location for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// EmbedURL derives the embeddable player location for a video id.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}
