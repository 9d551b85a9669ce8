package confessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/nyaynow/confessions-backend/internal/claims"
	"golang.org/x/sync/semaphore"
)

// FallbackReply is written as the AI reply when no candidate produced one.
const FallbackReply = "AI is currently unavailable; a community lawyer will respond shortly"

// Generator produces analysis text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer writes one AI reply per confession in the background. Tasks are
// best effort: a crash before write-back leaves the confession without an
// AI reply and nothing retries it.
type Analyzer struct {
	store   *Store
	gen     Generator
	claimer claims.Claimer
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	log     *slog.Logger
}

func NewAnalyzer(store *Store, gen Generator, claimer claims.Claimer, workers int, log *slog.Logger) *Analyzer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{
		store:   store,
		gen:     gen,
		claimer: claimer,
		sem:     semaphore.NewWeighted(int64(workers)),
		log:     log,
	}
}

// Schedule starts analysis of c and returns immediately.
func (a *Analyzer) Schedule(c *Confession) {
	snapshot := Confession{ID: c.ID, Title: c.Title, Body: c.Body, Category: c.Category}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx := context.Background()
		if err := a.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer a.sem.Release(1)
		defer a.recoverTask(ctx, snapshot.ID)
		a.analyse(ctx, &snapshot)
	}()
}

// Wait blocks until every scheduled task has finished.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

func (a *Analyzer) analyse(ctx context.Context, c *Confession) {
	if a.claimer != nil {
		ok, err := a.claimer.Claim(ctx, c.ID.String())
		if err != nil {
			// WriteAIReply still refuses a second AI reply.
			a.log.Warn("analysis claim failed, continuing", "confession_id", c.ID, "error", err)
		} else if !ok {
			a.log.Info("analysis already claimed", "confession_id", c.ID)
			return
		}
	}

	text := a.generate(ctx, c)
	a.writeBack(ctx, c.ID, text)
}

// recoverTask turns a panic anywhere in the task into a FallbackReply
// write. A second panic during that write is logged and dropped.
func (a *Analyzer) recoverTask(ctx context.Context, id uuid.UUID) {
	r := recover()
	if r == nil {
		return
	}
	a.log.Error("analysis task panicked", "confession_id", id, "panic", fmt.Sprint(r))
	report(id, fmt.Errorf("analysis panic: %v", r))

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("analysis fallback write panicked", "confession_id", id, "panic", fmt.Sprint(r))
			report(id, fmt.Errorf("analysis fallback panic: %v", r))
		}
	}()
	a.writeBack(ctx, id, FallbackReply)
}

// generate maps gateway errors to FallbackReply.
func (a *Analyzer) generate(ctx context.Context, c *Confession) string {
	out, err := a.gen.Generate(ctx, BuildPrompt(c))
	if err != nil {
		a.log.Warn("analysis generation failed, writing fallback", "confession_id", c.ID, "error", err)
		return FallbackReply
	}
	return out
}

func (a *Analyzer) writeBack(ctx context.Context, id uuid.UUID, text string) {
	err := a.store.WriteAIReply(ctx, id, text)
	switch {
	case err == nil:
		a.log.Info("analysis written", "confession_id", id, "fallback", text == FallbackReply)
	case errors.Is(err, ErrAnalysisExists):
		a.log.Info("analysis already present", "confession_id", id)
	default:
		a.log.Error("analysis write-back failed", "confession_id", id, "error", err)
		report(id, err)
	}
}

func report(id uuid.UUID, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "analyzer")
		scope.SetTag("confession_id", id.String())
	})
	hub.CaptureException(err)
}
