package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFunc func(ctx context.Context, model, prompt string) (string, error)

func (f providerFunc) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

func fixed(text string, err error, calls *int32) Provider {
	return providerFunc(func(context.Context, string, string) (string, error) {
		atomic.AddInt32(calls, 1)
		return text, err
	})
}

func newTestGateway(timeout time.Duration, candidates ...Candidate) *Gateway {
	return NewGateway(candidates, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerate_FirstCandidateWins(t *testing.T) {
	var first, second int32
	gw := newTestGateway(0,
		NewCandidate("gemini", "flash", fixed("analysis A", nil, &first)),
		NewCandidate("gemini", "pro", fixed("analysis B", nil, &second)),
	)

	text, err := gw.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "analysis A", text)
	assert.EqualValues(t, 1, first)
	assert.EqualValues(t, 0, second, "later candidates must not be tried after a success")
}

func TestGenerate_FallsBackToSecondCandidate(t *testing.T) {
	var first, second, third int32
	gw := newTestGateway(0,
		NewCandidate("gemini", "flash", fixed("", &StatusError{Provider: "gemini", StatusCode: 404, Body: "model not found"}, &first)),
		NewCandidate("gemini", "pro", fixed("  analysis B\n", nil, &second)),
		NewCandidate("deepseek", "chat", fixed("analysis C", nil, &third)),
	)

	text, err := gw.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "analysis B", text)
	assert.EqualValues(t, 1, first)
	assert.EqualValues(t, 1, second)
	assert.EqualValues(t, 0, third)
}

func TestGenerate_FallsThroughEveryErrorClass(t *testing.T) {
	var calls int32
	gw := newTestGateway(0,
		NewCandidate("a", "m1", fixed("", &StatusError{Provider: "a", StatusCode: 401}, &calls)),
		NewCandidate("b", "m2", fixed("", &StatusError{Provider: "b", StatusCode: 503}, &calls)),
		NewCandidate("c", "m3", fixed("", ErrNotConfigured, &calls)),
		NewCandidate("d", "m4", fixed("   ", nil, &calls)),
	)

	_, err := gw.Generate(context.Background(), "prompt")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.EqualValues(t, 4, calls, "each candidate is attempted exactly once")
	require.Len(t, genErr.Attempts, 4)
	assert.Equal(t, "a/m1", genErr.Attempts[0].Candidate)
	assert.Equal(t, ClassQuotaOrAuth, genErr.Attempts[0].Class)
	assert.Equal(t, ClassTransient, genErr.Attempts[1].Class)
	assert.Equal(t, ClassQuotaOrAuth, genErr.Attempts[2].Class)
	assert.Equal(t, ClassBadResponse, genErr.Attempts[3].Class)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerate_NoCandidates(t *testing.T) {
	gw := newTestGateway(0)

	_, err := gw.Generate(context.Background(), "prompt")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Empty(t, genErr.Attempts)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGenerate_PerCandidateTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	var calls int32
	gw := newTestGateway(20*time.Millisecond,
		NewCandidate("slow", "m", slow),
		NewCandidate("fast", "m", fixed("ok", nil, &calls)),
	)

	start := time.Now()
	text, err := gw.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerate_PassesModelAndPrompt(t *testing.T) {
	var gotModel, gotPrompt string
	p := providerFunc(func(_ context.Context, model, prompt string) (string, error) {
		gotModel, gotPrompt = model, prompt
		return "x", nil
	})
	gw := newTestGateway(0, NewCandidate("openai", "gpt-4o-mini", p))

	_, err := gw.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, "hello", gotPrompt)
	assert.Equal(t, []string{"openai/gpt-4o-mini"}, gw.Candidates())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"404", &StatusError{StatusCode: 404}, ClassModelNotFound},
		{"400 unknown model", &StatusError{StatusCode: 400, Body: `{"error":"model gemini-x is not supported"}`}, ClassModelNotFound},
		{"400 other", &StatusError{StatusCode: 400, Body: "bad temperature"}, ClassBadResponse},
		{"401", &StatusError{StatusCode: 401}, ClassQuotaOrAuth},
		{"429", &StatusError{StatusCode: 429}, ClassQuotaOrAuth},
		{"500", &StatusError{StatusCode: 500}, ClassTransient},
		{"408", &StatusError{StatusCode: 408}, ClassTransient},
		{"deadline", context.DeadlineExceeded, ClassTransient},
		{"no key", ErrNotConfigured, ClassQuotaOrAuth},
		{"empty", ErrEmptyCompletion, ClassBadResponse},
		{"decode", errors.Join(ErrBadResponse, errors.New("eof")), ClassBadResponse},
		{"unknown", errors.New("connection reset by peer"), ClassTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
