package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/robotics-tournament-core/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	// Seeds must be ordered by seed number.
	Seeds []*models.Seeding
}

// BracketRound is a planned bracket (one round of one bracket type).
type BracketRound struct {
	Key         string
	RoundNumber int
	Name        string
	Type        models.BracketType
}

// BracketMatch is a planned match. Links between matches use UIDs until the
// plan is persisted and real ids are known.
type BracketMatch struct {
	UID          string
	RoundKey     string
	OrderInRound int

	Team1ID     *int
	Team2ID     *int
	Team1SeedID *int
	Team2SeedID *int

	NextMatchUID        *string
	NextSlot            int
	ConsolationMatchUID *string
	ConsolationSlot     int

	// ExpectedEntrants counts the teams that will actually arrive: seeded
	// teams plus feeders that are able to deliver one.
	ExpectedEntrants int
	Status           models.MatchStatus
	WinnerTeamID     *int
}

func (bm *BracketMatch) filled() int {
	n := 0
	if bm.Team1ID != nil {
		n++
	}
	if bm.Team2ID != nil {
		n++
	}
	return n
}

func (bm *BracketMatch) place(slot int, teamID, seedID *int) {
	if slot == models.Slot1 {
		bm.Team1ID, bm.Team1SeedID = teamID, seedID
		return
	}
	bm.Team2ID, bm.Team2SeedID = teamID, seedID
}

func (bm *BracketMatch) seedOf(teamID int) *int {
	if bm.Team1ID != nil && *bm.Team1ID == teamID {
		return bm.Team1SeedID
	}
	return bm.Team2SeedID
}

// Fixture is a league pairing backed by a planned match.
type Fixture struct {
	RoundNumber int
	Team1ID     int
	Team2ID     int
	MatchUID    string
}

// Plan is the full structure produced by a generator.
type Plan struct {
	RoundsTotal int
	Rounds      []*BracketRound
	// Matches are in dependency order: every feeder precedes its targets.
	Matches  []*BracketMatch
	Fixtures []*Fixture
}

func (p *Plan) MatchesIn(roundKey string) []*BracketMatch {
	out := make([]*BracketMatch, 0)
	for _, m := range p.Matches {
		if m.RoundKey == roundKey {
			out = append(out, m)
		}
	}
	return out
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error)

	GetName() string
}

// NewGenerator picks the generator for a tournament format.
func NewGenerator(format models.TournamentFormat) (BracketGenerator, error) {
	switch format {
	case models.FormatElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	}
	return nil, fmt.Errorf("unsupported tournament format %q", format)
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func link(from *BracketMatch, to *BracketMatch, slot int) {
	from.NextMatchUID = strPtr(to.UID)
	from.NextSlot = slot
}

func linkLoser(from *BracketMatch, to *BracketMatch, slot int) {
	from.ConsolationMatchUID = strPtr(to.UID)
	from.ConsolationSlot = slot
}

// resolve computes expected entrants for every match and settles byes that
// are already decided at generation time: a match expecting a single team
// that is already known closes as a bye and pushes the team forward; a match
// expecting nobody closes as an empty bye.
func resolve(matches []*BracketMatch) {
	byUID := make(map[string]*BracketMatch, len(matches))
	type feed struct {
		from  *BracketMatch
		loser bool
	}
	incoming := make(map[string][]feed)
	for _, m := range matches {
		byUID[m.UID] = m
		if m.NextMatchUID != nil {
			incoming[*m.NextMatchUID] = append(incoming[*m.NextMatchUID], feed{from: m})
		}
		if m.ConsolationMatchUID != nil {
			incoming[*m.ConsolationMatchUID] = append(incoming[*m.ConsolationMatchUID], feed{from: m, loser: true})
		}
	}

	for _, m := range matches {
		expected := m.filled()
		feeds := incoming[m.UID]
		// a grand final feeds its reset twice; only count it once
		if len(feeds) == 2 && feeds[0].from == feeds[1].from {
			expected += 2
		} else {
			for _, f := range feeds {
				if f.loser && f.from.ExpectedEntrants == 2 {
					expected++
				}
				if !f.loser && f.from.ExpectedEntrants >= 1 {
					expected++
				}
			}
		}
		m.ExpectedEntrants = expected
	}

	for _, m := range matches {
		switch {
		case m.ExpectedEntrants == 0:
			m.Status = models.MatchStatusBye
		case m.ExpectedEntrants == 1 && m.filled() == 1:
			m.Status = models.MatchStatusBye
			winner := m.Team1ID
			if winner == nil {
				winner = m.Team2ID
			}
			m.WinnerTeamID = winner
			if m.NextMatchUID != nil {
				if next, ok := byUID[*m.NextMatchUID]; ok {
					next.place(m.NextSlot, winner, m.seedOf(*winner))
				}
			}
		case m.ExpectedEntrants == 2 && m.filled() == 2:
			m.Status = models.MatchStatusReady
		default:
			m.Status = models.MatchStatusPending
		}
	}
}
