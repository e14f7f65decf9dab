package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cs-go/internal/git"
	"cs-go/internal/model"
)

// Gateway is the version-control surface the lifecycle services consume.
// Implementations must execute operations strictly in submission order;
// *git.Gateway satisfies this with its single-worker queue.
type Gateway interface {
	Init(ctx context.Context, path, initialBranch string) error
	Clone(ctx context.Context, url, path string, opts git.CloneOptions) error
	CommitFiles(ctx context.Context, path, message string, files ...string) error
	Commit(ctx context.Context, path, message string) error
	Log(ctx context.Context, path string, opts git.LogOptions) ([]model.Commit, error)
	Branches(ctx context.Context, path string) ([]string, error)
	CurrentBranch(ctx context.Context, path string) (string, error)
	SwitchBranch(ctx context.Context, path, name string, create bool) error
	DeleteBranch(ctx context.Context, path, name string, force bool) error
	HasOrigin(ctx context.Context, path string) (bool, error)
	AddOrigin(ctx context.Context, path, url string) error
	SetOriginURL(ctx context.Context, path, url string) error
	GetOriginURL(ctx context.Context, path string) (string, error)
	Fetch(ctx context.Context, path string) error
	RefExists(ctx context.Context, path, ref string) (bool, error)
	Pull(ctx context.Context, path string) error
	Push(ctx context.Context, path string, opts git.PushOptions) error
	CreateTag(ctx context.Context, path, name, message string) error
	DeleteTag(ctx context.Context, path, name string) error
	Reset(ctx context.Context, path string, mode git.ResetMode, ref string) error
	ShowFileAtCommit(ctx context.Context, path, file, hash string) ([]byte, error)
	MergeSquash(ctx context.Context, path, branch string) error
}

// Logger provides structured logging for the service layer.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
