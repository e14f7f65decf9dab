package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cs-go/internal/model"
)

// Field and record separators for the custom log pretty format. Commit
// messages can contain newlines, so line-based parsing is not enough.
const (
	logFieldSep  = "\x1f"
	logRecordSep = "\x1e"
	logFormat    = "%H" + logFieldSep + "%an" + logFieldSep + "%ae" + logFieldSep + "%aI" + logFieldSep + "%D" + logFieldSep + "%s" + logRecordSep
)

// LogOptions bounds and filters a Log call.
type LogOptions struct {
	// File restricts the log to commits touching this path.
	File string
	// From and To bound a commit range (exclusive from, inclusive to), as
	// in "from..to". Ahead/behind computation reuses this.
	From string
	To   string
	// Limit caps the number of commits returned. Zero means no cap.
	Limit int
}

// Log returns commits in reverse-chronological order, each decorated with
// any snapshot tag pointing at it.
func (g *Gateway) Log(ctx context.Context, path string, opts LogOptions) ([]model.Commit, error) {
	args := []string{"log", "--pretty=format:" + logFormat, "--decorate=short"}
	if opts.Limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", opts.Limit))
	}
	if opts.From != "" || opts.To != "" {
		to := opts.To
		if to == "" {
			to = "HEAD"
		}
		args = append(args, opts.From+".."+to)
	}
	if opts.File != "" {
		args = append(args, "--", opts.File)
	}
	out, err := g.run(ctx, path, args...)
	if err != nil {
		// A freshly initialized repository has no HEAD yet; an empty log is
		// more useful to callers than the raw git failure.
		if cmdErr, ok := err.(*CommandError); ok && strings.Contains(cmdErr.Stderr, "does not have any commits yet") {
			return nil, nil
		}
		return nil, err
	}
	return parseLog(out)
}

func parseLog(out string) ([]model.Commit, error) {
	var commits []model.Commit
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, logFieldSep, 6)
		if len(fields) != 6 {
			return nil, fmt.Errorf("malformed log record: %q", record)
		}
		ts, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return nil, fmt.Errorf("parsing commit timestamp: %w", err)
		}
		commits = append(commits, model.Commit{
			Hash:        fields[0],
			AuthorName:  fields[1],
			AuthorEmail: fields[2],
			Timestamp:   ts.UTC(),
			Tag:         parseTag(fields[4]),
			Message:     fields[5],
		})
	}
	return commits, nil
}

// parseTag extracts the first tag name from a %D decoration list, e.g.
// "HEAD -> work, tag: 4ee0…, origin/work".
func parseTag(decoration string) string {
	for _, part := range strings.Split(decoration, ",") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "tag: "); ok {
			return name
		}
	}
	return ""
}

// CreateTag records an annotated tag at HEAD. Tag names are fresh UUIDs
// chosen by the caller; the message carries the human-readable intent.
func (g *Gateway) CreateTag(ctx context.Context, path, name, message string) error {
	_, err := g.run(ctx, path, "tag", "--annotate", "--message", message, name)
	return err
}

// DeleteTag removes a tag.
func (g *Gateway) DeleteTag(ctx context.Context, path, name string) error {
	_, err := g.run(ctx, path, "tag", "--delete", name)
	return err
}
