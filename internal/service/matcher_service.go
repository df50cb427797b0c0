package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
)

// ExpertMatcher selects an evaluator for a submission category using the
// tiered policy: primary speciality first, then secondary, then any
// active expert. The fallback tier trades speciality precision for
// availability so a submission is never starved while any expert exists.
type ExpertMatcher interface {
	SelectEvaluator(ctx context.Context, categoryCode string) (uint, error)
}

type expertMatcher struct {
	experts repository.ExpertRepository
	logger  zerolog.Logger

	// rng guarded by mu; rand.Rand is not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewExpertMatcher builds a matcher. Pass a seeded rand.Rand for
// deterministic tier selection in tests; nil uses a time-seeded source.
func NewExpertMatcher(experts repository.ExpertRepository, rng *rand.Rand, logger zerolog.Logger) ExpertMatcher {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &expertMatcher{
		experts: experts,
		rng:     rng,
		logger:  logger.With().Str("component", "expert_matcher").Logger(),
	}
}

func (m *expertMatcher) SelectEvaluator(ctx context.Context, categoryCode string) (uint, error) {
	matched, err := m.experts.ListBySpeciality(ctx, categoryCode)
	if err != nil {
		return 0, err
	}

	primary := make([]models.Expert, 0, len(matched))
	secondary := make([]models.Expert, 0, len(matched))
	for _, expert := range matched {
		if code, ok := expert.PrimarySpeciality(); ok && code == categoryCode {
			primary = append(primary, expert)
			continue
		}
		if code, ok := expert.SecondarySpeciality(); ok && code == categoryCode {
			secondary = append(secondary, expert)
		}
	}

	tier := "primary"
	candidates := primary
	if len(candidates) == 0 {
		tier = "secondary"
		candidates = secondary
	}
	if len(candidates) == 0 {
		// Nobody carries the speciality; fall back to the whole active
		// directory so the submission is not starved.
		tier = "fallback"
		candidates, err = m.experts.ListActive(ctx)
		if err != nil {
			return 0, err
		}
	}
	if len(candidates) == 0 {
		return 0, ErrNoEligibleEvaluator
	}

	selected := candidates[m.pick(len(candidates))]
	m.logger.Debug().
		Str("category", categoryCode).
		Str("tier", tier).
		Uint("evaluator_id", selected.ID).
		Msg("evaluator selected")

	return selected.ID, nil
}

func (m *expertMatcher) pick(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(n)
}
