package services

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	stageKey
	shotIDKey
	requestIDKey
)

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func ctxString(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithRunID tags ctx with the workflow run id. Empty ids are ignored.
func WithRunID(ctx context.Context, id string) context.Context { return withValue(ctx, runIDKey, id) }

func RunIDFromContext(ctx context.Context) (string, bool) { return ctxString(ctx, runIDKey) }

// WithStage tags ctx with the stage being executed.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return ctxString(ctx, stageKey) }

// WithShotID tags ctx with the shot currently being generated.
func WithShotID(ctx context.Context, id string) context.Context {
	return withValue(ctx, shotIDKey, id)
}

func ShotIDFromContext(ctx context.Context) (string, bool) { return ctxString(ctx, shotIDKey) }

// WithRequestID tags ctx with a per-stage correlation id that also ends up
// in provider requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return ctxString(ctx, requestIDKey) }
