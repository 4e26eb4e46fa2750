package youtube

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrUpstreamQuery is returned for any failed read-only catalog call. The
// raw upstream payload is logged but never surfaced to the caller.
var ErrUpstreamQuery = errors.New("upstream query failed")

// ErrNoFile is the terminal outcome of a multipart upload whose inbound
// stream closed without ever producing a file part.
var ErrNoFile = errors.New("no video file found in form-data")

// ReauthRequiredError means the owner's delegated credential was rejected
// by the remote service and the operator must re-consent. AuthURL is the
// consent URL to redirect them through.
type ReauthRequiredError struct {
	AuthURL string
	Cause   error
}

func (e *ReauthRequiredError) Error() string {
	return "refresh token invalid: reauthorization required"
}

func (e *ReauthRequiredError) Unwrap() error { return e.Cause }

// UploadError is any outbound upload failure that is not a credential
// problem. The upstream diagnostic is kept, it is operationally useful and
// not a secrets leak.
type UploadError struct {
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }

// StreamError means the inbound byte stream failed while being piped into
// the outbound request.
type StreamError struct {
	Cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("upload stream error: %v", e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// IsInvalidGrant reports whether err signals that the stored refresh
// credential is no longer usable. It is the single classification used by
// every component: a case-insensitive substring match for invalid_grant or
// refresh_token on the stringified failure payload.
func IsInvalidGrant(err error) bool {
	if err == nil {
		return false
	}

	txt := strings.ToLower(errorPayload(err))
	return strings.Contains(txt, "invalid_grant") || strings.Contains(txt, "refresh_token")
}

// errorPayload stringifies err including any upstream response body, which
// is where the remote service reports invalid_grant.
func errorPayload(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Error() + " " + gerr.Body
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return rerr.Error() + " " + string(rerr.Body)
	}

	return err.Error()
}
