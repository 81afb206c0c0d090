// Package seeding orders tournament entrants and assigns seed numbers.
package seeding

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/Dosada05/robotics-tournament-core/models"
)

const MinEntrants = 2

var (
	ErrNotEnoughEntrants  = errors.New("at least two entrants are required to seed a tournament")
	ErrInvalidManualSeeds = errors.New("manual seeds must be a permutation of 1..N")
	ErrUnknownMethod      = errors.New("unknown seeding method")
)

// Options control ordering. RandomSeed makes random seeding reproducible;
// when nil the clock is used.
type Options struct {
	Method     models.SeedingMethod
	RandomSeed *int64
}

// Score is the composite seeding score: league-style win rate in percent,
// (3*won + drawn) / (3*played) * 100, rounded to two decimals.
func Score(e *models.Entrant) float64 {
	if e.MatchesPlayed <= 0 {
		return 0
	}
	earned := float64(3*e.MatchesWon + e.MatchesDrawn())
	possible := float64(3 * e.MatchesPlayed)
	return math.Round(earned/possible*100*100) / 100
}

// performanceLess is the strict performance order: score, differential,
// points for, elo, then registration order.
func performanceLess(a, b *models.Entrant) bool {
	sa, sb := Score(a), Score(b)
	if sa != sb {
		return sa > sb
	}
	if a.PointDifferential() != b.PointDifferential() {
		return a.PointDifferential() > b.PointDifferential()
	}
	if a.PointsFor != b.PointsFor {
		return a.PointsFor > b.PointsFor
	}
	if a.EloRating != b.EloRating {
		return a.EloRating > b.EloRating
	}
	return a.ID < b.ID
}

// Order returns entrants in seed order. The input slice is not modified.
func Order(entrants []*models.Entrant, opts Options) ([]*models.Entrant, error) {
	if len(entrants) < MinEntrants {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughEntrants, len(entrants))
	}
	ordered := make([]*models.Entrant, len(entrants))
	copy(ordered, entrants)

	switch opts.Method {
	case models.SeedingPerformance:
		sort.SliceStable(ordered, func(i, j int) bool { return performanceLess(ordered[i], ordered[j]) })
	case models.SeedingRandom:
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
		seed := time.Now().UnixNano()
		if opts.RandomSeed != nil {
			seed = *opts.RandomSeed
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })
	case models.SeedingRegional:
		ordered = regionalOrder(ordered)
	case models.SeedingManual:
		if err := validateManual(ordered); err != nil {
			return nil, err
		}
		sort.Slice(ordered, func(i, j int) bool { return *ordered[i].ManualSeed < *ordered[j].ManualSeed })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}
	return ordered, nil
}

// regionalOrder ranks entrants inside their region, then deals one entrant
// per region per pass so teams from the same region are spread apart.
func regionalOrder(entrants []*models.Entrant) []*models.Entrant {
	sort.SliceStable(entrants, func(i, j int) bool { return performanceLess(entrants[i], entrants[j]) })

	groups := make(map[string][]*models.Entrant)
	regions := make([]string, 0)
	for _, e := range entrants {
		if _, ok := groups[e.Region]; !ok {
			regions = append(regions, e.Region)
		}
		groups[e.Region] = append(groups[e.Region], e)
	}
	// regions are already ordered by their best entrant since entrants were sorted first

	out := make([]*models.Entrant, 0, len(entrants))
	for pass := 0; len(out) < len(entrants); pass++ {
		for _, r := range regions {
			if pass < len(groups[r]) {
				out = append(out, groups[r][pass])
			}
		}
	}
	return out
}

func validateManual(entrants []*models.Entrant) error {
	seen := make(map[int]bool, len(entrants))
	for _, e := range entrants {
		if e.ManualSeed == nil {
			return fmt.Errorf("%w: team %d has no manual seed", ErrInvalidManualSeeds, e.TeamID)
		}
		s := *e.ManualSeed
		if s < 1 || s > len(entrants) {
			return fmt.Errorf("%w: seed %d out of range for team %d", ErrInvalidManualSeeds, s, e.TeamID)
		}
		if seen[s] {
			return fmt.Errorf("%w: seed %d used twice", ErrInvalidManualSeeds, s)
		}
		seen[s] = true
	}
	return nil
}

// Assign orders entrants and builds one Seeding per entrant with seed numbers 1..N.
func Assign(tournamentID int, entrants []*models.Entrant, opts Options) ([]*models.Seeding, error) {
	ordered, err := Order(entrants, opts)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	seeds := make([]*models.Seeding, len(ordered))
	for i, e := range ordered {
		elo := e.EloRating
		if elo == 0 {
			elo = models.DefaultEloRating
		}
		seeds[i] = &models.Seeding{
			TournamentID:  tournamentID,
			TeamID:        e.TeamID,
			SeedNumber:    i + 1,
			SeedingScore:  Score(e),
			EloRating:     elo,
			MatchesPlayed: e.MatchesPlayed,
			MatchesWon:    e.MatchesWon,
			MatchesLost:   e.MatchesLost,
			PointsFor:     e.PointsFor,
			PointsAgainst: e.PointsAgainst,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return seeds, nil
}
