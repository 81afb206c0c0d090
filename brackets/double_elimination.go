package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

// DoubleEliminationGenerator builds a winners bracket, a losers bracket fed by
// winners-bracket losers, a grand final and a grand-final reset.
//
// For a bracket of size S = 2^k the losers bracket has 2(k-1) rounds:
// round 1 pairs the losers of winners round 1; each even round 2j drops the
// losers of winners round j+1 against the survivors; each odd round halves
// the field. The reset is only played when the losers-bracket champion wins
// the grand final.
type DoubleEliminationGenerator struct{}

const (
	GrandFinalRoundName      = "Grand Final"
	GrandFinalResetRoundName = "Grand Final Reset"
	LosersFinalRoundName     = "Losers Final"
)

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	n := len(params.Seeds)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}
	k := RoundsFor(n)
	size := 1 << uint(k)
	plan := &Plan{}

	winners := buildWinnersBracket(plan, params.Seeds, func(r int) string {
		if r == k {
			return "Winners Final"
		}
		return fmt.Sprintf("Winners Round %d", r)
	})

	losersRounds := 2 * (k - 1)
	losers := make([][]*BracketMatch, losersRounds)
	newLosersRound := func(r, count int) []*BracketMatch {
		key := fmt.Sprintf("L%d", r)
		name := fmt.Sprintf("Losers Round %d", r)
		if r == losersRounds {
			name = LosersFinalRoundName
		}
		plan.Rounds = append(plan.Rounds, &BracketRound{Key: key, RoundNumber: r, Name: name, Type: models.BracketLosers})
		ms := make([]*BracketMatch, count)
		for i := range ms {
			ms[i] = &BracketMatch{UID: fmt.Sprintf("L%dM%d", r, i+1), RoundKey: key, OrderInRound: i + 1}
			plan.Matches = append(plan.Matches, ms[i])
		}
		return ms
	}

	if k >= 2 {
		losers[0] = newLosersRound(1, size/4)
		for i, m := range winners[0] {
			linkLoser(m, losers[0][i/2], i%2+1)
		}
		for j := 1; j <= k-1; j++ {
			// drop-in round: survivors in slot 1, winners-bracket losers in slot 2
			dropIn := 2 * j
			losers[dropIn-1] = newLosersRound(dropIn, size>>uint(j+1))
			for i, m := range losers[dropIn-2] {
				link(m, losers[dropIn-1][i], models.Slot1)
			}
			fromWinners := winners[j]
			count := len(fromWinners)
			for i, m := range fromWinners {
				// reversed to keep first-round opponents apart
				linkLoser(m, losers[dropIn-1][count-1-i], models.Slot2)
			}
			if j == k-1 {
				break
			}
			reduce := dropIn + 1
			losers[reduce-1] = newLosersRound(reduce, size>>uint(j+2))
			for i, m := range losers[dropIn-1] {
				link(m, losers[reduce-1][i/2], i%2+1)
			}
		}
	}

	finalRound := &BracketRound{Key: "GF", RoundNumber: k + 1, Name: GrandFinalRoundName, Type: models.BracketWinners}
	resetRound := &BracketRound{Key: "GR", RoundNumber: k + 2, Name: GrandFinalResetRoundName, Type: models.BracketWinners}
	plan.Rounds = append(plan.Rounds, finalRound, resetRound)
	grandFinal := &BracketMatch{UID: "GFM1", RoundKey: finalRound.Key, OrderInRound: 1}
	reset := &BracketMatch{UID: "GRM1", RoundKey: resetRound.Key, OrderInRound: 1}
	plan.Matches = append(plan.Matches, grandFinal, reset)

	winnersFinal := winners[k-1][0]
	link(winnersFinal, grandFinal, models.Slot1)
	if k >= 2 {
		link(losers[losersRounds-1][0], grandFinal, models.Slot2)
	} else {
		linkLoser(winnersFinal, grandFinal, models.Slot2)
	}
	link(grandFinal, reset, models.Slot1)
	linkLoser(grandFinal, reset, models.Slot2)

	plan.RoundsTotal = k + 2
	if losersRounds > plan.RoundsTotal {
		plan.RoundsTotal = losersRounds
	}

	resolve(plan.Matches)
	return plan, nil
}
