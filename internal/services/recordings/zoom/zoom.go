package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/zanzhit/meeting_recordings/internal/config"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
)

// Only these file types carry a playable capture; transcripts and chat logs are skipped.
var playableFileTypes = map[string]struct{}{
	"MP4": {},
	"M4A": {},
}

type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	apiURL     string
	groups     *cache.Cache
}

type meetingRecordings struct {
	UUID                  string          `json:"uuid"`
	ID                    int64           `json:"id"`
	Topic                 string          `json:"topic"`
	Password              string          `json:"password"`
	RecordingPlayPasscode string          `json:"recording_play_passcode"`
	RecordingFiles        []recordingFile `json:"recording_files"`
}

type recordingFile struct {
	ID             string `json:"id"`
	MeetingID      string `json:"meeting_id"`
	RecordingStart string `json:"recording_start"`
	RecordingEnd   string `json:"recording_end"`
	FileType       string `json:"file_type"`
	FileExtension  string `json:"file_extension"`
	PlayURL        string `json:"play_url"`
	Status         string `json:"status"`
	RecordingType  string `json:"recording_type"`
}

// New returns a client authenticated with Zoom Server-to-Server OAuth.
func New(log *slog.Logger, cfg config.Zoom) *Client {
	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInHeader,
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	oauthClient := creds.Client(ctx)
	oauthClient.Timeout = cfg.Timeout

	return NewWithHTTPClient(log, cfg.APIURL, oauthClient, cfg.CacheTTL)
}

// NewWithHTTPClient skips authentication setup; httpClient is used as is.
// A zero cacheTTL disables memoisation of recording groups.
func NewWithHTTPClient(log *slog.Logger, apiURL string, httpClient *http.Client, cacheTTL time.Duration) *Client {
	c := &Client{
		log:        log,
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
	}

	if cacheTTL > 0 {
		c.groups = cache.New(cacheTTL, 2*cacheTTL)
	}

	return c
}

// RecordingGroups returns the playable recordings of a meeting keyed by capture start
// (unix seconds). A meeting without cloud recordings yields an empty map.
func (c *Client) RecordingGroups(ctx context.Context, meetingID string) (map[int64][]models.RemoteRecording, error) {
	const op = "zoom.RecordingGroups"

	log := c.log.With(
		slog.String("op", op),
		slog.String("meeting_id", meetingID),
	)

	if c.groups != nil {
		if cached, ok := c.groups.Get(meetingID); ok {
			log.Debug("recording groups served from cache")

			return cached.(map[int64][]models.RemoteRecording), nil
		}
	}

	endpoint := fmt.Sprintf("%s/meetings/%s/recordings", c.apiURL, encodeMeetingID(meetingID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to send request: %w", op, errs.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	groups := make(map[int64][]models.RemoteRecording)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Info("meeting has no cloud recordings")

		c.remember(meetingID, groups)

		return groups, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: %w: %s", op, errs.ErrRemoteService, resp.Status)
	}

	var body meetingRecordings
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: %w: failed to decode response: %w", op, errs.ErrRemoteService, err)
	}

	passcode := body.Password
	if passcode == "" {
		passcode = body.RecordingPlayPasscode
	}

	for _, file := range body.RecordingFiles {
		if _, ok := playableFileTypes[file.FileType]; !ok || file.PlayURL == "" {
			continue
		}

		start, err := time.Parse(time.RFC3339, file.RecordingStart)
		if err != nil {
			log.Warn("skipping recording file with bad start time",
				slog.String("recording_id", file.ID),
				slog.String("recording_start", file.RecordingStart),
			)

			continue
		}

		key := start.Unix()
		groups[key] = append(groups[key], models.RemoteRecording{
			RecordingID:    file.ID,
			MeetingUUID:    body.UUID,
			RecordingType:  file.RecordingType,
			URL:            file.PlayURL,
			Passcode:       passcode,
			RecordingStart: key,
		})
	}

	log.Info("fetched recording groups", slog.Int("groups", len(groups)))

	c.remember(meetingID, groups)

	return groups, nil
}

func (c *Client) remember(meetingID string, groups map[int64][]models.RemoteRecording) {
	if c.groups != nil {
		c.groups.SetDefault(meetingID, groups)
	}
}

// encodeMeetingID double-escapes session UUIDs that start with "/" or contain "//",
// which the Zoom API otherwise misroutes.
func encodeMeetingID(id string) string {
	escaped := url.PathEscape(id)
	if strings.HasPrefix(id, "/") || strings.Contains(id, "//") {
		escaped = url.PathEscape(escaped)
	}

	return escaped
}
