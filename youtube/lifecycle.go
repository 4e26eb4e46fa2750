package youtube

import (
	"context"
	"fmt"

	"github.com/coursecast/coursecast/models"

	"github.com/rs/zerolog/log"
)

// Lifecycle polls and deletes previously uploaded assets on behalf of an
// owner. Unlike the upload path, invalid-grant failures here are surfaced
// as-is without reauthorization-URL enrichment.
type Lifecycle struct {
	broker *Broker
}

func NewLifecycle(b *Broker) *Lifecycle {
	return &Lifecycle{broker: b}
}

// Status reports upload and processing state for videoID. When the remote
// knows no such video, every field is absent rather than an error.
func (l *Lifecycle) Status(ctx context.Context, videoID, ownerID string) (*models.AssetStatus, error) {
	svc, err := l.broker.Service(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Videos.List([]string{"status", "processingDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upload status: %w", err)
	}

	status := &models.AssetStatus{}
	if len(resp.Items) == 0 {
		return status, nil
	}

	v := resp.Items[0]
	if v.Status != nil {
		status.UploadStatus = v.Status.UploadStatus
		status.PrivacyStatus = v.Status.PrivacyStatus
		status.Embeddable = &v.Status.Embeddable
	}
	if v.ProcessingDetails != nil {
		status.ProcessingStatus = v.ProcessingDetails.ProcessingStatus
		status.FailureReason = v.ProcessingDetails.ProcessingFailureReason
	}

	return status, nil
}

// Delete removes videoID from the remote service. Failures, including
// credential failures, propagate unchanged to keep deletion simple.
func (l *Lifecycle) Delete(ctx context.Context, videoID, ownerID string) error {
	svc, err := l.broker.Service(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := svc.Videos.Delete(videoID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	log.Info().Str("video_id", videoID).Str("owner_id", ownerID).Msg("video deleted")
	return nil
}
