// Package release fetches the paper's published releases from GitHub and
// indexes each one into a cached formula database.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Release is the slice of the GitHub release object this tool needs.
type Release struct {
	Tag        string `json:"tag_name"`
	TarballURL string `json:"tarball_url"`
}

// Client talks to the GitHub releases API for one repository.
type Client struct {
	repo  string
	token string
	http  *http.Client
}

func NewClient(repo, token string) *Client {
	return &Client{
		repo:  repo,
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

// List returns the repository's releases in GitHub order, newest first.
func (c *Client) List(ctx context.Context) ([]Release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases", c.repo)

	var releases []Release
	err := retry.Do(
		func() error {
			resp, err := c.get(ctx, url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			releases = releases[:0]
			return json.NewDecoder(resp.Body).Decode(&releases)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("listing releases for %s: %w", c.repo, err)
	}
	return releases, nil
}

// download streams url into dest, retrying the whole transfer on failure.
func (c *Client) download(ctx context.Context, url, dest string) error {
	return retry.Do(
		func() error {
			resp, err := c.get(ctx, url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out, err := os.Create(dest)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, resp.Body); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
	)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// Version strips the tag's leading "v", matching the version part of a code
// tag and the database keys.
func Version(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
