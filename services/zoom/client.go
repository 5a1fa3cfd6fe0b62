package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slotchain/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrCredentialsUnset is returned by CreateMeeting when no OAuth app is configured.
var ErrCredentialsUnset = errors.New("zoom API credentials are not configured")

// tokenRefreshSkew refreshes the access token this long before it expires.
const tokenRefreshSkew = 60 * time.Second

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	APIURL       string // e.g. https://api.zoom.us/v2
	OAuthURL     string // e.g. https://zoom.us/oauth/token
	HTTPClient   *http.Client
}

// APIError is a non-2xx answer from the meetings API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoom api returned %d: %s", e.StatusCode, e.Body)
}

// Client creates meetings through Zoom's server-to-server OAuth app.
type Client struct {
	apiURL string
	http   *http.Client
}

// tokenFetcher asks the token endpoint every time; caching is left to
// oauth2.ReuseTokenSourceWithExpiry.
type tokenFetcher struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (f tokenFetcher) Token() (*oauth2.Token, error) {
	return f.cfg.Token(f.ctx)
}

func NewClient(cfg Config) *Client {
	c := &Client{apiURL: strings.TrimRight(cfg.APIURL, "/")}
	if cfg.AccountID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return c
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.OAuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	ts := oauth2.ReuseTokenSourceWithExpiry(nil, tokenFetcher{ctx: ctx, cfg: cc}, tokenRefreshSkew)
	c.http = oauth2.NewClient(ctx, ts)
	return c
}

// Configured reports whether credentials were supplied.
func (c *Client) Configured() bool { return c.http != nil }

type meetingSettings struct {
	HostVideo        bool   `json:"host_video"`
	ParticipantVideo bool   `json:"participant_video"`
	JoinBeforeHost   bool   `json:"join_before_host"`
	MuteUponEntry    bool   `json:"mute_upon_entry"`
	WaitingRoom      bool   `json:"waiting_room"`
	Approval         int    `json:"approval_type"`
	Audio            string `json:"audio"`
	AutoRecording    string `json:"auto_recording"`
}

type createMeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda"`
	Settings  meetingSettings `json:"settings"`
}

type createMeetingResponse struct {
	ID       json.Number `json:"id"`
	JoinURL  string      `json:"join_url"`
	StartURL string      `json:"start_url"`
}

// CreateMeeting schedules a meeting for req. StartTimeLocal is interpreted in
// req.Timezone.
func (c *Client) CreateMeeting(ctx context.Context, req models.MeetingRequest) (*models.Meeting, error) {
	if c.http == nil {
		return nil, ErrCredentialsUnset
	}

	payload, err := json.Marshal(createMeetingRequest{
		Topic:     req.Topic,
		Type:      2, // scheduled
		StartTime: req.StartTimeLocal,
		Duration:  req.DurationMinutes,
		Timezone:  req.Timezone,
		Agenda:    req.Agenda,
		Settings: meetingSettings{
			HostVideo:        true,
			ParticipantVideo: true,
			JoinBeforeHost:   true,
			MuteUponEntry:    false,
			WaitingRoom:      false,
			Approval:         2,
			Audio:            "voip",
			AutoRecording:    "none",
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/users/me/meetings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zoom meeting request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read zoom response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out createMeetingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode zoom response: %w", err)
	}
	return &models.Meeting{
		ID:      out.ID.String(),
		JoinURL: out.JoinURL,
		HostURL: out.StartURL,
	}, nil
}
