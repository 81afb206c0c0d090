package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

// SwissGenerator plans only the first round: later rounds depend on results
// and are built with SwissRound.
type SwissGenerator struct{}

func NewSwissGenerator() BracketGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GenerateBracket pairs seed i with seed i+N/2. With an odd field the lowest
// seed receives the bye.
func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	n := len(params.Seeds)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}
	teams := make([]SwissTeam, n)
	for i, s := range params.Seeds {
		teams[i] = SwissTeam{TeamID: s.TeamID, SeedID: intPtr(s.ID)}
	}

	var bye *SwissTeam
	if n%2 == 1 {
		bye = &teams[n-1]
		teams = teams[:n-1]
	}
	half := len(teams) / 2
	pairs := make([][2]SwissTeam, 0, half)
	for i := 0; i < half; i++ {
		pairs = append(pairs, [2]SwissTeam{teams[i], teams[i+half]})
	}

	plan := &Plan{RoundsTotal: RoundsFor(n)}
	addSwissRound(plan, 1, pairs, bye)
	return plan, nil
}

// SwissTeam is a team as seen by the swiss pairing: its id and seeding row.
type SwissTeam struct {
	TeamID int
	SeedID *int
}

// SwissRound plans swiss round roundNo from teams ordered by current ranking.
// played reports whether two teams already met; hadBye whether a team already
// sat out a round. Rematches are avoided when any rematch-free pairing exists.
func SwissRound(roundNo int, ranked []SwissTeam, played func(a, b int) bool, hadBye func(teamID int) bool) (*Plan, error) {
	if len(ranked) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	teams := make([]SwissTeam, len(ranked))
	copy(teams, ranked)

	var bye *SwissTeam
	if len(teams)%2 == 1 {
		idx := len(teams) - 1
		for i := len(teams) - 1; i >= 0; i-- {
			if !hadBye(teams[i].TeamID) {
				idx = i
				break
			}
		}
		b := teams[idx]
		bye = &b
		teams = append(teams[:idx], teams[idx+1:]...)
	}

	pairs, ok := pairWithoutRematch(teams, played)
	if !ok {
		pairs = pairInOrder(teams)
	}

	plan := &Plan{RoundsTotal: roundNo}
	addSwissRound(plan, roundNo, pairs, bye)
	return plan, nil
}

// pairWithoutRematch backtracks over the ranked list, pairing the top
// unpaired team with the nearest opponent it has not met yet.
func pairWithoutRematch(teams []SwissTeam, played func(a, b int) bool) ([][2]SwissTeam, bool) {
	used := make([]bool, len(teams))
	pairs := make([][2]SwissTeam, 0, len(teams)/2)

	var walk func() bool
	walk = func() bool {
		first := -1
		for i := range teams {
			if !used[i] {
				first = i
				break
			}
		}
		if first < 0 {
			return true
		}
		used[first] = true
		for j := first + 1; j < len(teams); j++ {
			if used[j] || played(teams[first].TeamID, teams[j].TeamID) {
				continue
			}
			used[j] = true
			pairs = append(pairs, [2]SwissTeam{teams[first], teams[j]})
			if walk() {
				return true
			}
			pairs = pairs[:len(pairs)-1]
			used[j] = false
		}
		used[first] = false
		return false
	}
	return pairs, walk()
}

func pairInOrder(teams []SwissTeam) [][2]SwissTeam {
	pairs := make([][2]SwissTeam, 0, len(teams)/2)
	for i := 0; i+1 < len(teams); i += 2 {
		pairs = append(pairs, [2]SwissTeam{teams[i], teams[i+1]})
	}
	return pairs
}

func addSwissRound(plan *Plan, roundNo int, pairs [][2]SwissTeam, bye *SwissTeam) {
	key := fmt.Sprintf("S%d", roundNo)
	plan.Rounds = append(plan.Rounds, &BracketRound{
		Key:         key,
		RoundNumber: roundNo,
		Name:        fmt.Sprintf("Swiss Round %d", roundNo),
		Type:        models.BracketWinners,
	})
	for i, p := range pairs {
		bm := &BracketMatch{UID: fmt.Sprintf("S%dM%d", roundNo, i+1), RoundKey: key, OrderInRound: i + 1}
		bm.place(models.Slot1, intPtr(p[0].TeamID), p[0].SeedID)
		bm.place(models.Slot2, intPtr(p[1].TeamID), p[1].SeedID)
		plan.Matches = append(plan.Matches, bm)
		plan.Fixtures = append(plan.Fixtures, &Fixture{
			RoundNumber: roundNo,
			Team1ID:     p[0].TeamID,
			Team2ID:     p[1].TeamID,
			MatchUID:    bm.UID,
		})
	}
	if bye != nil {
		// a single-entrant match closes as a bye during resolve
		bm := &BracketMatch{UID: fmt.Sprintf("S%dM%d", roundNo, len(pairs)+1), RoundKey: key, OrderInRound: len(pairs) + 1}
		bm.place(models.Slot1, intPtr(bye.TeamID), bye.SeedID)
		plan.Matches = append(plan.Matches, bm)
	}
	resolve(plan.Matches)
}
