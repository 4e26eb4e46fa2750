package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/store"
	"github.com/coursecast/coursecast/youtube"
)

var (
	uploadFile        string
	uploadTitle       string
	uploadDescription string
	uploadPrivacy     string
	uploadOwner       string
)

func getUploadCmd() *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a single video file from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateUpload(); err != nil {
				return err
			}

			ts, err := store.Open(cfg.DataDir + "/db")
			if err != nil {
				return err
			}
			defer ts.Close()

			owner := cfg.OwnerID
			if uploadOwner != "" {
				owner = uploadOwner
			}

			broker := youtube.NewBroker(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.FallbackRefreshToken, ts)
			uploader := youtube.NewUploader(broker, ts)

			result, err := uploader.UploadFile(cmd.Context(), uploadFile, youtube.UploadParams{
				Title:         uploadTitle,
				Description:   uploadDescription,
				PrivacyStatus: uploadPrivacy,
				OwnerID:       owner,
			})

			var reauth *youtube.ReauthRequiredError
			if errors.As(err, &reauth) {
				fmt.Fprintln(os.Stderr, "refresh token invalid; re-consent at:")
				fmt.Fprintln(os.Stderr, reauth.AuthURL)
				return err
			}
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}

	uploadCmd.Flags().StringVar(&uploadFile, "file", "", "path to the video file")
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "video title")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "video description")
	uploadCmd.Flags().StringVar(&uploadPrivacy, "privacy", youtube.PrivacyUnlisted, "privacy status: public, unlisted or private")
	uploadCmd.Flags().StringVar(&uploadOwner, "owner", "", "owner id override")
	_ = uploadCmd.MarkFlagRequired("file")

	return uploadCmd
}
