package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyPageSize = 50
)

// SpotifyName is the service key of [SpotifyProvider].
const SpotifyName = "spotify"

// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       spotifyOwner   `json:"owner"`
	Images      []spotifyImage `json:"images"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type spotifyPlaylistItem struct {
	Track *spotifyTrack `json:"track"`
}

// SpotifyProvider reads a user's public playlists with the client-credentials grant.
type SpotifyProvider struct {
	userID     string
	baseURL    string
	httpClient *http.Client
}

// SpotifyOption configures a [SpotifyProvider].
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	baseURL    string
	tokenURL   string
	httpClient *http.Client
}

// WithSpotifyBaseURL points API calls at baseURL instead of api.spotify.com.
func WithSpotifyBaseURL(baseURL string) SpotifyOption {
	return func(o *spotifyOptions) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSpotifyTokenURL overrides the token endpoint.
func WithSpotifyTokenURL(tokenURL string) SpotifyOption {
	return func(o *spotifyOptions) { o.tokenURL = tokenURL }
}

// WithSpotifyHTTPClient sets the transport used for both token and API requests.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(o *spotifyOptions) { o.httpClient = c }
}

// NewSpotifyProvider validates cfg and prepares an authenticated client.
// The token is fetched lazily on the first request and refreshed by [oauth2].
func NewSpotifyProvider(cfg shared.SpotifyConfig, opts ...SpotifyOption) (*SpotifyProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("%w: spotify user_id is required", shared.ErrMissingConfig)
	}

	o := spotifyOptions{baseURL: spotifyBaseURL, tokenURL: spotifyTokenURL}
	for _, opt := range opts {
		opt(&o)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     o.tokenURL,
	}

	ctx := context.Background()
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	return &SpotifyProvider{
		userID:     cfg.UserID,
		baseURL:    o.baseURL,
		httpClient: cc.Client(ctx),
	}, nil
}

func (s *SpotifyProvider) Name() string { return SpotifyName }

// doRequest performs an authenticated GET against the API and decodes the JSON body into result.
func (s *SpotifyProvider) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FetchPlaylists pages through /users/{id}/playlists.
func (s *SpotifyProvider) FetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist

	for offset := 0; ; offset += spotifyPageSize {
		endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d&offset=%d", url.PathEscape(s.userID), spotifyPageSize, offset)

		var page spotifyPage[spotifyPlaylist]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			p := models.Playlist{
				ID:          sp.ID,
				Title:       sp.Name,
				Owner:       sp.Owner.DisplayName,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
			}
			if p.Owner == "" {
				p.Owner = sp.Owner.ID
			}
			if len(sp.Images) > 0 {
				p.Image = sp.Images[0].URL
			}
			playlists = append(playlists, p)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
	}

	return playlists, nil
}

// FetchTracks pages through /playlists/{id}/tracks. Local or removed entries without a track are skipped.
func (s *SpotifyProvider) FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track

	for offset := 0; ; offset += spotifyPageSize {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), spotifyPageSize, offset)

		var page spotifyPage[spotifyPlaylistItem]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			track := models.Track{
				ID:       item.Track.ID,
				Title:    item.Track.Name,
				Album:    item.Track.Album.Name,
				Duration: item.Track.DurationMS / 1000,
			}
			if len(item.Track.Artists) > 0 {
				track.Artist = item.Track.Artists[0].Name
			}
			tracks = append(tracks, track)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
	}

	return tracks, nil
}
