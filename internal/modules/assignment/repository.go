package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mx-space/scribe/internal/models"
	"gorm.io/gorm"
)

// Repository holds the current assignment. Save replaces it; Current returns
// ErrNoAssignment until the first Save.
type Repository interface {
	Save(ctx context.Context, run *Run, a *models.Assignment) error
	Current(ctx context.Context) (*models.Assignment, error)
}

func clone(a *models.Assignment) *models.Assignment {
	out := *a
	out.MainSections = cloneSlice(a.MainSections)
	out.Sources = cloneSlice(a.Sources)
	out.ToolsUsed = cloneSlice(a.ToolsUsed)
	return &out
}

// cloneSlice keeps nil as nil and empty as empty so JSON shapes survive.
func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// MemoryRepository keeps the current assignment in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	current *models.Assignment
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (r *MemoryRepository) Save(_ context.Context, _ *Run, a *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = clone(a)
	return nil
}

func (r *MemoryRepository) Current(_ context.Context) (*models.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, ErrNoAssignment
	}
	return clone(r.current), nil
}

// KeyValue is the subset of the redis client the redis repository needs.
type KeyValue interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisRepository stores the current assignment as JSON under a single key.
type RedisRepository struct {
	kv  KeyValue
	key string
}

func NewRedisRepository(kv KeyValue, key string) *RedisRepository {
	return &RedisRepository{kv: kv, key: key}
}

func (r *RedisRepository) Save(ctx context.Context, _ *Run, a *models.Assignment) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assignment: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, body, 0); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisRepository) Current(ctx context.Context) (*models.Assignment, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	if raw == "" {
		return nil, ErrNoAssignment
	}
	var a models.Assignment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

// GormRepository appends every assignment to the assignments table; the
// newest row is the current one.
type GormRepository struct{ db *gorm.DB }

func NewGormRepository(db *gorm.DB) *GormRepository { return &GormRepository{db: db} }

func (r *GormRepository) Save(ctx context.Context, run *Run, a *models.Assignment) error {
	rec, err := toRecord(run, a, time.Now())
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormRepository) Current(ctx context.Context) (*models.Assignment, error) {
	var rec models.AssignmentRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAssignment
		}
		return nil, err
	}
	return fromRecord(&rec)
}

func toRecord(run *Run, a *models.Assignment, now time.Time) (*models.AssignmentRecord, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode assignment: %w", err)
	}
	rec := &models.AssignmentRecord{
		Topic:   a.Topic,
		Sources: append([]string{}, a.Sources...),
		Payload: string(body),
	}
	if run != nil {
		rec.RunID = run.ID
		if !run.StartedAt.IsZero() {
			rec.Elapsed = now.Sub(run.StartedAt)
		}
	}
	return rec, nil
}

func fromRecord(rec *models.AssignmentRecord) (*models.Assignment, error) {
	var a models.Assignment
	if err := json.Unmarshal([]byte(rec.Payload), &a); err != nil {
		return nil, fmt.Errorf("decode assignment %s: %w", rec.RunID, err)
	}
	return &a, nil
}
