package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quizdeck/internal/domain"
)

// ResultStore is the key/value surface used to hand a finished result to the
// results view. Get returns domain.ErrResultNotFound for unknown keys.
type ResultStore interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// ResultBridge serializes session results in and out of a ResultStore.
type ResultBridge struct {
	store        ResultStore
	logger       *slog.Logger
	pollInterval time.Duration
}

func NewResultBridge(store ResultStore, logger *slog.Logger) *ResultBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultBridge{store: store, logger: logger, pollInterval: 100 * time.Millisecond}
}

// Save writes result under its mode's key, replacing any earlier attempt.
func (b *ResultBridge) Save(ctx context.Context, result domain.SessionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := result.Mode.ResultKey(result.QuizID)
	if err := b.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store result %s: %w", key, err)
	}
	return nil
}

// Clear drops the stored result for quizID. Called when a new attempt starts.
func (b *ResultBridge) Clear(ctx context.Context, mode domain.Mode, quizID string) error {
	key := mode.ResultKey(quizID)
	if err := b.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove result %s: %w", key, err)
	}
	return nil
}

// Load reads the stored result for quizID.
func (b *ResultBridge) Load(ctx context.Context, mode domain.Mode, quizID string) (domain.SessionResult, error) {
	key := mode.ResultKey(quizID)
	data, err := b.store.Get(ctx, key)
	if err != nil {
		return domain.SessionResult{}, err
	}
	var result domain.SessionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.SessionResult{}, fmt.Errorf("decode result %s: %w", key, err)
	}
	return result, nil
}

// Await polls for a result until it appears or wait elapses, so a result that
// never arrives ends in domain.ErrResultNotFound instead of loading forever.
func (b *ResultBridge) Await(ctx context.Context, mode domain.Mode, quizID string, wait time.Duration) (domain.SessionResult, error) {
	deadline := time.Now().Add(wait)
	for {
		result, err := b.Load(ctx, mode, quizID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrResultNotFound) {
			b.logger.Error("load quiz result", "quiz_id", quizID, "mode", mode, "error", err)
			return domain.SessionResult{}, err
		}
		if !time.Now().Before(deadline) {
			return domain.SessionResult{}, err
		}

		timer := time.NewTimer(b.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.SessionResult{}, ctx.Err()
		case <-timer.C:
		}
	}
}
