package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dhabedank/stageprompt/internal/core"
)

// Versioned stamps prompt sets with versions and numbering before handing
// them to a RecordStore. It implements core.PromptStore.
type Versioned struct {
	records core.RecordStore
	cache   *CounterCache
	now     func() time.Time
}

var _ core.PromptStore = (*Versioned)(nil)

// NewVersioned wraps a record store. A nil cache gets a private one.
func NewVersioned(records core.RecordStore, cache *CounterCache) *Versioned {
	if cache == nil {
		cache = NewCounterCache()
	}
	return &Versioned{records: records, cache: cache, now: time.Now}
}

// Save replaces a stage's prompts with a new version. Versions increase by
// one per (project, stage); global prompt numbers continue from the current
// project total so they never repeat within a project.
func (v *Versioned) Save(ctx context.Context, projectID string, stage int, prompts []core.CategorizedPrompt) ([]core.PromptRecord, error) {
	if stage < 1 || stage > core.StageCount {
		return nil, fmt.Errorf("%w: %d", core.ErrUnknownStage, stage)
	}

	counters, err := v.counters(ctx, projectID)
	if err != nil {
		return nil, err
	}

	version := counters[stage].version + 1
	startingGlobal := 0
	for _, sc := range counters {
		startingGlobal += sc.count
	}

	now := v.now()
	records := make([]core.PromptRecord, len(prompts))
	for i, p := range prompts {
		records[i] = core.PromptRecord{
			CategorizedPrompt:   p,
			ProjectID:           projectID,
			Stage:               stage,
			Version:             version,
			PromptNumberInStage: i + 1,
			GlobalPromptNumber:  startingGlobal + i + 1,
			CreatedAt:           now,
		}
	}

	if err := v.records.ReplaceStagePrompts(ctx, projectID, stage, records); err != nil {
		return nil, fmt.Errorf("failed to replace stage %d prompts: %w", stage, err)
	}
	v.cache.Set(projectID, stage, version, len(records))
	return records, nil
}

// GetAll returns every stage's current records sorted by stage and
// position, filling in fields missing from legacy records.
func (v *Versioned) GetAll(ctx context.Context, projectID string) ([]core.PromptRecord, error) {
	var all []core.PromptRecord
	now := v.now()
	for stage := 1; stage <= core.StageCount; stage++ {
		records, err := v.records.ReadStagePrompts(ctx, projectID, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to read stage %d prompts: %w", stage, err)
		}
		maxVersion := 0
		for i := range records {
			backfill(&records[i], projectID, stage, i, len(all), now)
			if records[i].Version > maxVersion {
				maxVersion = records[i].Version
			}
		}
		v.cache.Set(projectID, stage, maxVersion, len(records))
		all = append(all, records...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Stage != all[j].Stage {
			return all[i].Stage < all[j].Stage
		}
		return all[i].PromptNumberInStage < all[j].PromptNumberInStage
	})
	return all, nil
}

// Clear removes every stage of a project and forgets its counters.
func (v *Versioned) Clear(ctx context.Context, projectID string) error {
	if err := v.records.ClearProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to clear project %s: %w", projectID, err)
	}
	v.cache.Invalidate(projectID)
	return nil
}

// counters returns the version and count of all five stages, reading the
// store only for stages the cache does not know.
func (v *Versioned) counters(ctx context.Context, projectID string) (map[int]stageCounter, error) {
	out := make(map[int]stageCounter, core.StageCount)
	for stage := 1; stage <= core.StageCount; stage++ {
		if version, count, ok := v.cache.Get(projectID, stage); ok {
			out[stage] = stageCounter{version: version, count: count}
			continue
		}

		records, err := v.records.ReadStagePrompts(ctx, projectID, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to read stage %d prompts: %w", stage, err)
		}
		sc := stageCounter{count: len(records)}
		for _, r := range records {
			version := r.Version
			if version < 1 {
				version = 1
			}
			if version > sc.version {
				sc.version = version
			}
		}
		v.cache.Set(projectID, stage, sc.version, sc.count)
		out[stage] = sc
	}
	return out, nil
}

// backfill gives a legacy record safe defaults. index is the record's
// position in its stage, offset the number of records in earlier stages.
func backfill(r *core.PromptRecord, projectID string, stage, index, offset int, now time.Time) {
	if r.ProjectID == "" {
		r.ProjectID = projectID
	}
	if r.Stage == 0 {
		r.Stage = stage
	}
	if r.Version < 1 {
		r.Version = 1
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.PromptNumberInStage < 1 {
		r.PromptNumberInStage = index + 1
	}
	if r.GlobalPromptNumber < 1 {
		r.GlobalPromptNumber = offset + index + 1
	}
	if r.Ordinal < 1 {
		r.Ordinal = r.PromptNumberInStage
	}
	if r.Category == "" {
		r.Category = core.CategorizePrompt(r.ParsedPrompt)
	}
}
