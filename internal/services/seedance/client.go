package seedance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/timeline"
)

// EngineAPI is the default engine name.
const EngineAPI = "seedance-api"

// EngineMock is accepted as an alias of the placeholder engine.
const EngineMock = "mock"

// Request is everything the backend needs to produce one shot.
type Request struct {
	RunID         string
	ShotID        string
	Prompt        string
	Mode          timeline.ControlMode
	RequestedMode timeline.ControlMode
	ModelID       string
	DraftMode     bool
	ImageRefs     []string
	AudioRefs     []string
	DurationSec   float64
	OutputPath    string
}

// Response describes the produced artifact.
type Response struct {
	Path        string
	Attempt     int
	GeneratedAt time.Time
}

// ProgressUpdate reports backend progress for one shot.
type ProgressUpdate struct {
	ShotID  string
	Percent float64
	Message string
}

// Client generates shot artifacts.
type Client interface {
	Generate(ctx context.Context, req Request, progress func(ProgressUpdate)) (Response, error)
}

// Option configures the placeholder client.
type Option func(*Placeholder)

// WithClock overrides the time source used for GeneratedAt.
func WithClock(clock func() time.Time) Option {
	return func(p *Placeholder) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Placeholder writes a text artifact describing the request and always
// succeeds unless the write fails.
type Placeholder struct {
	engine string
	clock  func() time.Time
}

// NewPlaceholder constructs the placeholder backend for engine.
func NewPlaceholder(engine string, opts ...Option) *Placeholder {
	p := &Placeholder{engine: engine, clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the engine name this client serves.
func (p *Placeholder) Engine() string { return p.engine }

// Generate writes the placeholder artifact to req.OutputPath.
func (p *Placeholder) Generate(ctx context.Context, req Request, progress func(ProgressUpdate)) (Response, error) {
	if strings.TrimSpace(req.OutputPath) == "" {
		return Response{}, errors.New("output path required")
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if progress != nil {
		progress(ProgressUpdate{ShotID: req.ShotID, Percent: 0, Message: "generation queued"})
	}
	if err := runstore.WriteText(req.OutputPath, RenderPlaceholder(req)); err != nil {
		return Response{}, fmt.Errorf("write shot artifact: %w", err)
	}
	if progress != nil {
		progress(ProgressUpdate{ShotID: req.ShotID, Percent: 100, Message: "generation finished"})
	}
	return Response{Path: req.OutputPath, Attempt: 1, GeneratedAt: p.clock().UTC().Truncate(time.Second)}, nil
}

// RenderPlaceholder returns the placeholder artifact body for req.
func RenderPlaceholder(req Request) string {
	var b strings.Builder
	b.WriteString("MOCK_VIDEO\n")
	fmt.Fprintf(&b, "shot=%s\n", req.ShotID)
	fmt.Fprintf(&b, "mode=%s\n", req.Mode)
	fmt.Fprintf(&b, "requested_mode=%s\n", req.RequestedMode)
	fmt.Fprintf(&b, "model_id=%s\n", req.ModelID)
	fmt.Fprintf(&b, "draft_mode=%s\n", strconv.FormatBool(req.DraftMode))
	fmt.Fprintf(&b, "duration=%s\n", strconv.FormatFloat(req.DurationSec, 'f', -1, 64))
	return b.String()
}

// ForEngine returns the client registered for engine. Unknown engines are a
// configuration error.
func ForEngine(engine string, opts ...Option) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case EngineAPI, EngineMock:
		return NewPlaceholder(engine, opts...), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generate", "select engine",
			fmt.Sprintf("unsupported engine %q", engine), nil)
	}
}

var _ Client = (*Placeholder)(nil)
