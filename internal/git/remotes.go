package git

import (
	"context"
	"strings"
)

// Remotes lists the configured remote names.
func (g *Gateway) Remotes(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, path, "remote")
	if err != nil {
		return nil, err
	}
	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			remotes = append(remotes, line)
		}
	}
	return remotes, nil
}

// HasOrigin reports whether an "origin" remote is configured.
func (g *Gateway) HasOrigin(ctx context.Context, path string) (bool, error) {
	remotes, err := g.Remotes(ctx, path)
	if err != nil {
		return false, err
	}
	for _, r := range remotes {
		if r == "origin" {
			return true, nil
		}
	}
	return false, nil
}

// AddOrigin configures url as the "origin" remote. Fails if one exists.
func (g *Gateway) AddOrigin(ctx context.Context, path, url string) error {
	_, err := g.run(ctx, path, "remote", "add", "origin", url)
	return err
}

// SetOriginURL changes the URL of the existing "origin" remote.
func (g *Gateway) SetOriginURL(ctx context.Context, path, url string) error {
	_, err := g.run(ctx, path, "remote", "set-url", "origin", url)
	return err
}

// GetOriginURL returns the URL of the "origin" remote.
func (g *Gateway) GetOriginURL(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, path, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
