package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
)

// Repositories is the record store every service works against.
type Repositories struct {
	Tx          repositories.Transactor
	Tournaments repositories.TournamentRepository
	Entrants    repositories.EntrantRepository
	Seedings    repositories.SeedingRepository
	Brackets    repositories.BracketRepository
	Matches     repositories.MatchRepository
	Schedule    repositories.ScheduleRepository
	Standings   repositories.StandingRepository
	Results     repositories.ResultRepository
	Teams       repositories.TeamRegistry
	Categories  repositories.CategoryRegistry
}

// Notifier receives events after a transaction commits. *brackets.Hub implements it.
type Notifier interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Publish(int, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func intPtr(v int) *int { return &v }

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// requireStatus returns ErrInvalidState unless the tournament is in one of the allowed statuses.
func requireStatus(t *models.Tournament, allowed ...models.TournamentStatus) error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: tournament %d is %s", ErrInvalidState, t.ID, t.Status)
}

// advanceStatus moves the tournament one step along its lifecycle.
func advanceStatus(ctx context.Context, exec repositories.SQLExecutor, repo repositories.TournamentRepository, t *models.Tournament, to models.TournamentStatus) error {
	if !t.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: tournament %d cannot move from %s to %s", ErrInvalidState, t.ID, t.Status, to)
	}
	if err := repo.UpdateStatus(ctx, exec, t.ID, t.Status, to); err != nil {
		return translateRepoError(err)
	}
	t.Status = to
	return nil
}

// progress is the tournament's bracket state after recomputation.
type progress struct {
	brackets []*models.Bracket
	matches  []*models.Match
	byID     map[int]*models.Bracket
}

func (p *progress) allTerminal() bool {
	for _, m := range p.matches {
		if !m.Status.IsTerminal() {
			return false
		}
	}
	return len(p.matches) > 0
}

func (p *progress) maxRound() int {
	max := 0
	for _, b := range p.brackets {
		if b.RoundNumber > max {
			max = b.RoundNumber
		}
	}
	return max
}

// refreshProgress recomputes every bracket status and the tournament's
// current round: the lowest round with an unfinished bracket, else the last
// generated round.
func refreshProgress(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament) (*progress, error) {
	bs, err := repos.Brackets.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets of tournament %d: %w", t.ID, err)
	}
	ms, err := repos.Matches.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", t.ID, err)
	}

	p := &progress{brackets: bs, matches: ms, byID: make(map[int]*models.Bracket, len(bs))}
	grouped := make(map[int][]models.Match, len(bs))
	for _, m := range ms {
		grouped[m.BracketID] = append(grouped[m.BracketID], *m)
	}

	current := 0
	for _, b := range bs {
		p.byID[b.ID] = b
		status := models.StatusFor(grouped[b.ID])
		if status != b.Status {
			if err := repos.Brackets.UpdateStatus(ctx, exec, b.ID, status); err != nil {
				return nil, translateRepoError(err)
			}
			b.Status = status
		}
		if status != models.BracketStatusCompleted && (current == 0 || b.RoundNumber < current) {
			current = b.RoundNumber
		}
	}
	if current == 0 {
		current = p.maxRound()
	}
	if current > t.RoundsTotal {
		current = t.RoundsTotal
	}
	if current != t.CurrentRound {
		if err := repos.Tournaments.UpdateProgress(ctx, exec, t.ID, t.RoundsTotal, current); err != nil {
			return nil, translateRepoError(err)
		}
		t.CurrentRound = current
	}
	return p, nil
}

// roundName of the bracket a match belongs to.
func (p *progress) roundName(m *models.Match) string {
	if b, ok := p.byID[m.BracketID]; ok {
		return b.RoundName
	}
	return ""
}

func (p *progress) matchesIn(roundName string) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range p.matches {
		if p.roundName(m) == roundName {
			out = append(out, m)
		}
	}
	return out
}
