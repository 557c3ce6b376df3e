// Package registry provides the client-side registry plumbing the load tools
// need: a reachability preflight and tag listing for seeded repositories.
package registry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

var ErrUnreachable = errors.New("registry unreachable")

// Client talks to one registry host.
type Client struct {
	reg        name.Registry
	httpClient *http.Client
}

// New creates a client for the given registry host. With insecure set the
// client uses plain HTTP scheme resolution and skips TLS verification, for
// lab registries running with self-signed certificates.
func New(host string, insecure bool) (*Client, error) {
	var nameOpts []name.Option
	if insecure {
		nameOpts = append(nameOpts, name.Insecure)
	}

	reg, err := name.NewRegistry(host, nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse registry host %q: %w", host, err)
	}

	transport := http.DefaultTransport
	if insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		reg: reg,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Host returns the registry host the client targets.
func (c *Client) Host() string {
	return c.reg.RegistryStr()
}

// Ping probes the registry's /v2/ endpoint. An authentication challenge
// (401/403) still proves the registry is reachable; anything else is
// ErrUnreachable, which callers treat as fatal.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s://%s/v2/", c.reg.Scheme(), c.reg.RegistryStr())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, c.Host(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
		return nil
	}
	return fmt.Errorf("%w: %s: unexpected status %s", ErrUnreachable, c.Host(), resp.Status)
}

// ListTags lists the tags of a repository, e.g. to verify what a seed run
// pushed. Repo is the full host/namespace/repository string.
func (c *Client) ListTags(ctx context.Context, repo string) ([]string, error) {
	var nameOpts []name.Option
	if c.reg.Scheme() == "http" {
		nameOpts = append(nameOpts, name.Insecure)
	}

	repository, err := name.NewRepository(repo, nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse repository %q: %w", repo, err)
	}

	tags, err := remote.List(repository,
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
		remote.WithTransport(c.httpClient.Transport),
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// ParseReference parses a tagged image reference with the client's scheme
// settings applied.
func (c *Client) ParseReference(ref string) (name.Reference, error) {
	var nameOpts []name.Option
	if c.reg.Scheme() == "http" {
		nameOpts = append(nameOpts, name.Insecure)
	}
	parsed, err := name.ParseReference(ref, nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}
	return parsed, nil
}

// Options returns remote options suitable for image pushes against this
// registry, sharing the client's transport and the ambient keychain.
func (c *Client) Options(ctx context.Context) []remote.Option {
	return []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
		remote.WithTransport(c.httpClient.Transport),
	}
}
