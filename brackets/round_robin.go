package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates one bracket per playing round using the circle
// method. Every fixture is a ready match. With two legs the second half of
// the schedule repeats the first with home and away swapped.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	if len(params.Seeds) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	legs := 1
	if params.Tournament != nil {
		legs = params.Tournament.Legs()
	}

	pairings := CirclePairings(params.Seeds)
	perLeg := len(pairings)
	plan := &Plan{RoundsTotal: perLeg * legs}

	for leg := 0; leg < legs; leg++ {
		for i, round := range pairings {
			roundNo := leg*perLeg + i + 1
			key := fmt.Sprintf("R%d", roundNo)
			plan.Rounds = append(plan.Rounds, &BracketRound{
				Key:         key,
				RoundNumber: roundNo,
				Name:        fmt.Sprintf("Round %d", roundNo),
				Type:        models.BracketWinners,
			})
			for j, p := range round {
				home, away := p[0], p[1]
				if leg == 1 {
					home, away = away, home
				}
				bm := &BracketMatch{UID: fmt.Sprintf("R%dM%d", roundNo, j+1), RoundKey: key, OrderInRound: j + 1}
				bm.place(models.Slot1, intPtr(home.TeamID), intPtr(home.ID))
				bm.place(models.Slot2, intPtr(away.TeamID), intPtr(away.ID))
				plan.Matches = append(plan.Matches, bm)
				plan.Fixtures = append(plan.Fixtures, &Fixture{
					RoundNumber: roundNo,
					Team1ID:     home.TeamID,
					Team2ID:     away.TeamID,
					MatchUID:    bm.UID,
				})
			}
		}
	}

	resolve(plan.Matches)
	return plan, nil
}

// CirclePairings returns n-1 rounds (n rounded up to even) in which every
// seed meets every other seed exactly once. With an odd count a dummy is
// added and whoever draws it sits the round out.
func CirclePairings(seeds []*models.Seeding) [][][2]*models.Seeding {
	ring := make([]*models.Seeding, len(seeds))
	copy(ring, seeds)
	if len(ring)%2 == 1 {
		ring = append(ring, nil)
	}
	n := len(ring)
	rounds := make([][][2]*models.Seeding, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([][2]*models.Seeding, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := ring[i], ring[n-1-i]
			if a == nil || b == nil {
				continue
			}
			// alternate sides for the fixed seed so it is not always home
			if i == 0 && r%2 == 1 {
				a, b = b, a
			}
			round = append(round, [2]*models.Seeding{a, b})
		}
		rounds = append(rounds, round)

		// keep ring[0] fixed, rotate the rest clockwise
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return rounds
}
