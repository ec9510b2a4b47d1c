package plex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
)

// GetPlaylists returns the playlists the proxy exposes.
func (c *Client) GetPlaylists(ctx context.Context) ([]core.PlaylistSummary, error) {
	var root any
	if err := c.Get(ctx, "/playlists", &root); err != nil {
		return nil, err
	}
	return ExtractPlaylists(root), nil
}

// GetPlaylist fetches a playlist and normalizes its tracks. Tracks without
// an identifier are dropped and reported in the result errors.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*perrors.PartialResult[*core.Playlist], error) {
	if id == "" {
		return nil, perrors.ErrNoPlaylist
	}
	var root any
	if err := c.Get(ctx, "/playlist/"+url.PathEscape(id), &root); err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", perrors.ErrPlaylistNotFound, id)
		}
		return nil, err
	}

	result := ExtractPlaylist(root, c.baseURL)
	result.Data.ID = id
	return result, nil
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

// MintTicket requests a fresh single-use stream ticket for a track. It does
// not retry; callers own the retry policy.
func (c *Client) MintTicket(ctx context.Context, trackID string) (string, error) {
	if trackID == "" {
		return "", perrors.ErrInvalidSelection
	}
	var resp ticketResponse
	if err := c.GetOnce(ctx, "/stream/for/"+url.PathEscape(trackID), &resp); err != nil {
		return "", fmt.Errorf("stream ticket: %w", err)
	}
	if resp.Ticket == "" {
		return "", errors.New("stream ticket: empty ticket in response")
	}
	return resp.Ticket, nil
}

// StreamURL returns the absolute stream location for a ticket. The rk
// parameter lets the proxy re-mint on its side.
func (c *Client) StreamURL(ticket, trackID string) string {
	u := c.baseURL + "/stream/" + url.PathEscape(ticket)
	if trackID != "" {
		u += "?rk=" + url.QueryEscape(trackID)
	}
	return u
}

// Resolve turns a proxy-relative path into an absolute URL on the proxy origin.
func (c *Client) Resolve(ref string) string {
	if ref == "" || !strings.HasPrefix(ref, "/") {
		return ref
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ref
	}
	return base.Scheme + "://" + base.Host + ref
}

var (
	legacyStreamPath = regexp.MustCompile(`(?i)/api/stream/([^?&#]+)`)
	bareTicket       = regexp.MustCompile(`^[A-Za-z0-9._-]{8,}$`)
	absoluteURL      = regexp.MustCompile(`(?i)^https?://[^/]+(/.*)$`)
)

// ProxiedStreamURL rewrites a legacy stream reference so it goes through the
// proxy at apiBase, attaching rk when the track id is known.
func ProxiedStreamURL(apiBase, original, trackID string) string {
	if original == "" {
		return original
	}
	apiBase = strings.TrimRight(apiBase, "/")
	rk := ""
	if trackID != "" {
		rk = "?rk=" + url.QueryEscape(trackID)
	}

	if strings.HasPrefix(original, apiBase+"/stream/") {
		if trackID == "" {
			return original
		}
		u, err := url.Parse(original)
		if err != nil {
			return original
		}
		q := u.Query()
		if !q.Has("rk") {
			q.Set("rk", trackID)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}

	if m := legacyStreamPath.FindStringSubmatch(original); m != nil {
		return apiBase + "/stream/" + m[1] + rk
	}
	if bareTicket.MatchString(original) {
		return apiBase + "/stream/" + original + rk
	}
	return original
}

// ProxiedPlexURL makes a Plex media URL same-origin under /plexproxy without
// touching its query.
func ProxiedPlexURL(input string) string {
	switch {
	case input == "":
		return ""
	case strings.HasPrefix(input, "/plexproxy/"):
		return input
	}
	if m := absoluteURL.FindStringSubmatch(input); m != nil {
		return "/plexproxy" + m[1]
	}
	if strings.HasPrefix(input, "/") {
		return "/plexproxy" + input
	}
	return input
}
