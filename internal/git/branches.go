package git

import (
	"context"
	"fmt"
	"strings"
)

// Branches lists the local branch names in the repository at path.
func (g *Gateway) Branches(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, path, "branch", "--list", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// CurrentBranch returns the branch HEAD points at.
func (g *Gateway) CurrentBranch(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, path, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SwitchBranch checks out name, creating it first when create is true.
// The name is validated against reference-naming rules before git is
// invoked, so an invalid name never reaches the working tree.
func (g *Gateway) SwitchBranch(ctx context.Context, path, name string, create bool) error {
	if err := ValidateBranchName(name); err != nil {
		return err
	}
	args := []string{"switch"}
	if create {
		args = append(args, "--create")
	}
	args = append(args, name)
	_, err := g.run(ctx, path, args...)
	return err
}

// DeleteBranch removes a local branch. force allows deleting branches not
// merged into HEAD, which the migration rollback relies on.
func (g *Gateway) DeleteBranch(ctx context.Context, path, name string, force bool) error {
	flag := "--delete"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, path, "branch", flag, name)
	return err
}

// ValidateBranchName checks name against git's reference-naming rules
// (the subset that matters for single-level branch names).
func ValidateBranchName(name string) error {
	if name == "" || name == "@" {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") || strings.Contains(name, "//") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("invalid branch name %q", name)
		}
		switch r {
		case ' ', '~', '^', ':', '?', '*', '[', '\\':
			return fmt.Errorf("invalid branch name %q", name)
		}
	}
	return nil
}
