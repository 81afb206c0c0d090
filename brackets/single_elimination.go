package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Dosada05/robotics-tournament-core/models"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket (minimum 2)")

const ThirdPlaceRoundName = "Third Place"

// StandardBracketSeeds returns the seed placed at each first-round position
// of a bracket of the given power-of-two size, e.g. 1,8,4,5,2,7,3,6 for 8.
// Seed 1 meets the lowest seed and the top two seeds sit in opposite halves.
func StandardBracketSeeds(size int) []int {
	seeds := []int{1}
	for n := 2; n <= size; n *= 2 {
		next := make([]int, 0, n)
		for _, s := range seeds {
			next = append(next, s, n+1-s)
		}
		seeds = next
	}
	return seeds
}

// RoundsFor is ceil(log2(n)).
func RoundsFor(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

func roundName(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	}
	return fmt.Sprintf("Round of %d", 1<<uint(totalRounds-round+1))
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	n := len(params.Seeds)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}
	plan := &Plan{RoundsTotal: RoundsFor(n)}
	rounds := buildWinnersBracket(plan, params.Seeds, func(r int) string { return roundName(r, plan.RoundsTotal) })

	if params.Tournament != nil && params.Tournament.ThirdPlaceMatch && plan.RoundsTotal >= 2 {
		third := &BracketRound{Key: "C1", RoundNumber: plan.RoundsTotal, Name: ThirdPlaceRoundName, Type: models.BracketConsolation}
		plan.Rounds = append(plan.Rounds, third)
		tp := &BracketMatch{UID: "C1M1", RoundKey: third.Key, OrderInRound: 1}
		for i, semi := range rounds[plan.RoundsTotal-2] {
			linkLoser(semi, tp, i+1)
		}
		plan.Matches = append(plan.Matches, tp)
	}

	resolve(plan.Matches)
	return plan, nil
}

// buildWinnersBracket lays out a seeded knockout tree and returns its matches
// grouped by round (index 0 is round 1).
func buildWinnersBracket(plan *Plan, seeds []*models.Seeding, name func(round int) string) [][]*BracketMatch {
	n := len(seeds)
	totalRounds := RoundsFor(n)
	size := 1 << uint(totalRounds)
	order := StandardBracketSeeds(size)

	rounds := make([][]*BracketMatch, totalRounds)
	for r := 1; r <= totalRounds; r++ {
		key := fmt.Sprintf("W%d", r)
		plan.Rounds = append(plan.Rounds, &BracketRound{Key: key, RoundNumber: r, Name: name(r), Type: models.BracketWinners})
		count := size >> uint(r)
		for i := 1; i <= count; i++ {
			bm := &BracketMatch{UID: fmt.Sprintf("W%dM%d", r, i), RoundKey: key, OrderInRound: i}
			if r == 1 {
				for slot, pos := range []int{2*i - 2, 2*i - 1} {
					seedNo := order[pos]
					if seedNo <= n {
						s := seeds[seedNo-1]
						bm.place(slot+1, intPtr(s.TeamID), intPtr(s.ID))
					}
				}
			}
			rounds[r-1] = append(rounds[r-1], bm)
			plan.Matches = append(plan.Matches, bm)
		}
		if r > 1 {
			for i, prev := range rounds[r-2] {
				link(prev, rounds[r-1][i/2], i%2+1)
			}
		}
	}
	return rounds
}
