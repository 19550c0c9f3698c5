// Package selfupdate replaces the running flagz binary with the latest
// GitHub release.
package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/semver"
)

// DevVersion is the version string of builds without release ldflags.
const DevVersion = "(devel)"

// Checker queries GitHub releases for the flagz binary.
type Checker struct {
	client   *http.Client
	baseURL  string
	owner    string
	repo     string
	binary   string
	execPath func() (string, error)
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds every HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.client.Timeout = d }
}

// WithBaseURL overrides the GitHub API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Checker) { c.baseURL = url }
}

// WithRepository points the checker at another owner/repo.
func WithRepository(owner, repo string) Option {
	return func(c *Checker) {
		c.owner = owner
		c.repo = repo
	}
}

func withExecPath(fn func() (string, error)) Option {
	return func(c *Checker) { c.execPath = fn }
}

// NewChecker creates a checker for the flagz releases.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  "https://api.github.com",
		owner:    "abhisek",
		repo:     "flagz",
		binary:   "flagz",
		execPath: resolveExecutable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func resolveExecutable() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(p)
}

// Release is a published flagz release.
type Release struct {
	Tag string
	URL string
	// Assets maps asset file names to download URLs.
	Assets map[string]string
}

// CheckInput is the running version.
type CheckInput struct {
	Version string
}

// CheckResult compares the running version with the latest release.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
	UpdateAvailable bool
	Release         *Release
}

type releaseDoc struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		Name string `json:"name"`
		URL  string `json:"browser_download_url"`
	} `json:"assets"`
}

// Latest fetches the latest release. Its tag must be a semantic version.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	var doc releaseDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if canonical(doc.TagName) == "" {
		return nil, fmt.Errorf("release tag %q is not a semantic version", doc.TagName)
	}

	rel := &Release{Tag: doc.TagName, URL: doc.HTMLURL, Assets: make(map[string]string, len(doc.Assets))}
	for _, a := range doc.Assets {
		rel.Assets[a.Name] = a.URL
	}
	return rel, nil
}

// Check fetches the latest release and compares it with input.Version.
// A current version that does not parse always reports an update.
func (c *Checker) Check(ctx context.Context, input *CheckInput) (*CheckResult, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	current := canonical(input.Version)
	return &CheckResult{
		CurrentVersion:  input.Version,
		LatestVersion:   rel.Tag,
		ReleaseURL:      rel.URL,
		UpdateAvailable: current == "" || semver.Compare(canonical(rel.Tag), current) > 0,
		Release:         rel,
	}, nil
}

// canonical accepts versions with or without the leading v.
func canonical(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	return semver.Canonical(v)
}
