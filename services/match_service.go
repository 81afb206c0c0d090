package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/robotics-tournament-core/brackets"
	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/seeding"
	"github.com/Dosada05/robotics-tournament-core/standings"
)

type MatchScores struct {
	Team1Score *int `json:"team1_score"`
	Team2Score *int `json:"team2_score"`
}

// MatchSchedule is the assignment supplied by the venue scheduling service.
type MatchSchedule struct {
	VenueID     *int       `json:"venue_id,omitempty"`
	TableNumber *string    `json:"table_number,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ScheduleMatch(ctx context.Context, matchID int, schedule MatchSchedule) (*models.Match, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	// CompleteMatch records the score, advances the teams and, when it was the
	// last open match, completes the tournament.
	CompleteMatch(ctx context.Context, matchID int, scores MatchScores) (*models.Match, error)
	ForfeitMatch(ctx context.Context, matchID, forfeitingTeamID int, reason string) (*models.Match, error)
}

type matchService struct {
	repos    Repositories
	notifier Notifier
	logger   *slog.Logger
}

func NewMatchService(repos Repositories, notifier Notifier, logger *slog.Logger) MatchService {
	return &matchService{
		repos:    repos,
		notifier: notifierOrNoop(notifier),
		logger:   loggerOrDefault(logger),
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.repos.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return m, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateRepoError(err)
	}
	ms, err := s.repos.Matches.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	return ms, nil
}

// lockMatch locks the tournament and then the match, so every result of one
// tournament is applied in sequence.
func (s *matchService) lockMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) (*models.Tournament, *models.Match, error) {
	peek, err := s.repos.Matches.GetByID(ctx, exec, matchID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, peek.TournamentID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	m, err := s.repos.Matches.GetByIDForUpdate(ctx, exec, matchID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	if m.Status.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: match %d is %s", ErrAlreadyCompleted, m.ID, m.Status)
	}
	return t, m, nil
}

func (s *matchService) ScheduleMatch(ctx context.Context, matchID int, schedule MatchSchedule) (*models.Match, error) {
	var out *models.Match
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, m, err := s.lockMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if m.Status == models.MatchStatusInProgress {
			return fmt.Errorf("%w: match %d has already started", ErrInvalidState, m.ID)
		}
		if err := s.repos.Matches.Schedule(ctx, exec, m.ID, schedule.VenueID, schedule.TableNumber, schedule.ScheduledAt); err != nil {
			return translateRepoError(err)
		}
		m.VenueID, m.TableNumber, m.ScheduledAt = schedule.VenueID, schedule.TableNumber, schedule.ScheduledAt
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(out.TournamentID, brackets.EventMatchUpdated, out)
	return out, nil
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	var out *models.Match
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, m, err := s.lockMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if err := requireStatus(t, models.StatusActive); err != nil {
			return err
		}
		if m.Status != models.MatchStatusReady || !m.IsReady() || m.StartedAt != nil {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidState, m.ID, m.Status)
		}
		now := time.Now()
		if err := s.repos.Matches.Start(ctx, exec, m.ID, now); err != nil {
			return translateRepoError(err)
		}
		m.Status, m.StartedAt = models.MatchStatusInProgress, &now
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match started", slog.Int("match_id", matchID), slog.Int("tournament_id", out.TournamentID))
	s.notifier.Publish(out.TournamentID, brackets.EventMatchUpdated, out)
	return out, nil
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID int, scores MatchScores) (*models.Match, error) {
	if scores.Team1Score == nil || scores.Team2Score == nil || *scores.Team1Score < 0 || *scores.Team2Score < 0 {
		return nil, ErrScoresRequired
	}
	var (
		out     *models.Match
		outcome *resultOutcome
	)
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, m, err := s.lockMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if err := requireStatus(t, models.StatusActive); err != nil {
			return err
		}
		if m.Status != models.MatchStatusInProgress {
			return fmt.Errorf("%w: match %d is %s, it must be in progress", ErrInvalidState, m.ID, m.Status)
		}
		s1, s2 := *scores.Team1Score, *scores.Team2Score
		if s1 == s2 && !t.Format.AllowsDraws() {
			return fmt.Errorf("%w: %d-%d in a %s tournament", ErrDrawNotAllowed, s1, s2, t.Format)
		}

		now := time.Now()
		m.Team1Score, m.Team2Score = intPtr(s1), intPtr(s2)
		m.WinnerTeamID, m.LoserTeamID = nil, nil
		switch {
		case s1 > s2:
			m.WinnerTeamID, m.LoserTeamID = m.Team1ID, m.Team2ID
		case s2 > s1:
			m.WinnerTeamID, m.LoserTeamID = m.Team2ID, m.Team1ID
		}
		m.Status, m.CompletedAt = models.MatchStatusCompleted, &now
		if err := s.repos.Matches.Complete(ctx, exec, m); err != nil {
			return translateRepoError(err)
		}

		outcome, err = s.afterResult(ctx, exec, t, m, nil)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match completed",
		slog.Int("match_id", matchID),
		slog.Int("tournament_id", out.TournamentID),
		slog.Int("team1_score", *out.Team1Score),
		slog.Int("team2_score", *out.Team2Score))
	s.publish(out, outcome)
	return out, nil
}

// ForfeitMatch awards the match to the opponent of forfeitingTeamID.
func (s *matchService) ForfeitMatch(ctx context.Context, matchID, forfeitingTeamID int, reason string) (*models.Match, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrForfeitReasonRequired
	}
	var (
		out     *models.Match
		outcome *resultOutcome
	)
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, m, err := s.lockMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if err := requireStatus(t, models.StatusActive); err != nil {
			return err
		}
		if m.Status != models.MatchStatusReady && m.Status != models.MatchStatusInProgress {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidState, m.ID, m.Status)
		}
		if !m.HasTeam(forfeitingTeamID) {
			return fmt.Errorf("%w: team %d, match %d", ErrTeamNotInMatch, forfeitingTeamID, m.ID)
		}
		winner := m.Opponent(forfeitingTeamID)
		if winner == nil {
			return fmt.Errorf("%w: match %d has no opponent to award", ErrInvalidState, m.ID)
		}

		now := time.Now()
		m.WinnerTeamID, m.LoserTeamID = intPtr(*winner), intPtr(forfeitingTeamID)
		m.Status, m.CompletedAt, m.ForfeitReason = models.MatchStatusForfeit, &now, &reason
		if err := s.repos.Matches.Complete(ctx, exec, m); err != nil {
			return translateRepoError(err)
		}

		outcome, err = s.afterResult(ctx, exec, t, m, intPtr(forfeitingTeamID))
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match forfeited",
		slog.Int("match_id", matchID),
		slog.Int("tournament_id", out.TournamentID),
		slog.Int("forfeiting_team_id", forfeitingTeamID))
	s.publish(out, outcome)
	return out, nil
}

type resultOutcome struct {
	standings []*models.Standing
	completed bool
	results   []*models.TournamentResult
}

func (s *matchService) publish(m *models.Match, o *resultOutcome) {
	s.notifier.Publish(m.TournamentID, brackets.EventMatchUpdated, m)
	if o == nil {
		return
	}
	if o.standings != nil {
		s.notifier.Publish(m.TournamentID, brackets.EventStandingsUpdated, o.standings)
	}
	if o.completed {
		s.notifier.Publish(m.TournamentID, brackets.EventTournamentCompleted, o.results)
	}
}

// afterResult applies a decided match to seedings, standings and the
// bracket, then completes the tournament when nothing is left to play.
func (s *matchService) afterResult(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match, forfeiter *int) (*resultOutcome, error) {
	outcome := &resultOutcome{}
	if err := s.updateSeedings(ctx, exec, t, m, forfeiter); err != nil {
		return nil, err
	}
	if t.Format.UsesStandings() {
		rows, err := s.updateStandings(ctx, exec, t, m, forfeiter)
		if err != nil {
			return nil, err
		}
		outcome.standings = rows
	}
	if err := propagate(ctx, exec, s.repos, m); err != nil {
		return nil, err
	}

	p, err := refreshProgress(ctx, exec, s.repos, t)
	if err != nil {
		return nil, err
	}
	if !isFinished(t, p) {
		return outcome, nil
	}
	results, err := completeTournament(ctx, exec, s.repos, t, p)
	if err != nil {
		return nil, err
	}
	outcome.completed = true
	outcome.results = results
	if results == nil {
		s.logger.WarnContext(ctx, "tournament completed with tied placements; results wait for a tie order", slog.Int("tournament_id", t.ID))
	} else {
		s.logger.InfoContext(ctx, "tournament completed", slog.Int("tournament_id", t.ID), slog.Int("placements", len(results)))
	}
	return outcome, nil
}

func (s *matchService) updateSeedings(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match, forfeiter *int) error {
	if !m.IsReady() {
		return nil
	}
	one, err := s.repos.Seedings.GetByTournamentAndTeam(ctx, exec, t.ID, *m.Team1ID)
	if err != nil {
		return translateRepoError(err)
	}
	two, err := s.repos.Seedings.GetByTournamentAndTeam(ctx, exec, t.ID, *m.Team2ID)
	if err != nil {
		return translateRepoError(err)
	}

	var p1, p2 int
	var r1 models.MatchResult
	if forfeiter != nil {
		r1 = models.ResultWin
		if *forfeiter == *m.Team1ID {
			r1 = models.ResultLoss
		}
	} else {
		p1, p2 = *m.Team1Score, *m.Team2Score
		r1 = models.ResultFromScores(p1, p2)
	}
	elo1, elo2 := one.EloRating, two.EloRating
	seeding.ApplyResult(one, elo2, p1, p2, r1)
	seeding.ApplyResult(two, elo1, p2, p1, r1.Inverse())
	for _, row := range []*models.Seeding{one, two} {
		if err := s.repos.Seedings.UpdateStats(ctx, exec, row); err != nil {
			return translateRepoError(err)
		}
	}
	return nil
}

// updateStandings claims the fixture with a check-and-set on is_played and
// applies the result to both rows exactly once.
func (s *matchService) updateStandings(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match, forfeiter *int) ([]*models.Standing, error) {
	entry, err := s.repos.Schedule.GetByMatchID(ctx, exec, m.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.repos.Schedule.MarkPlayed(ctx, exec, entry.ID); err != nil {
		return nil, translateRepoError(err)
	}

	home, err := s.repos.Standings.GetByTournamentAndTeam(ctx, exec, t.ID, entry.Team1ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	away, err := s.repos.Standings.GetByTournamentAndTeam(ctx, exec, t.ID, entry.Team2ID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	points := t.PointSystem()
	switch {
	case forfeiter != nil && *forfeiter == home.TeamID:
		standings.RecordForfeit(away, home, points, intPtr(m.ID))
	case forfeiter != nil:
		standings.RecordForfeit(home, away, points, intPtr(m.ID))
	default:
		homeScore, awayScore := *m.Team1Score, *m.Team2Score
		if m.Team1ID != nil && *m.Team1ID != home.TeamID {
			homeScore, awayScore = awayScore, homeScore
		}
		if err := standings.RecordPair(home, away, homeScore, awayScore, points, intPtr(m.ID)); err != nil {
			return nil, translateRepoError(err)
		}
	}
	for _, row := range []*models.Standing{home, away} {
		if err := s.repos.Standings.Update(ctx, exec, row); err != nil {
			return nil, translateRepoError(err)
		}
	}

	if err := rankTable(ctx, exec, s.repos, t); err != nil {
		return nil, err
	}
	rows, err := s.repos.Standings.ListByTournament(ctx, exec, t.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of tournament %d: %w", t.ID, err)
	}
	return rows, nil
}

// propagate moves the winner to the next match and the loser to the
// consolation match. A grand final decides whether its reset is played.
func propagate(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, m *models.Match) error {
	if m.NextMatchID == nil && m.ConsolationMatchID == nil {
		return nil
	}
	b, err := repos.Brackets.GetByID(ctx, exec, m.BracketID)
	if err != nil {
		return translateRepoError(err)
	}
	if b.RoundName == brackets.GrandFinalRoundName && m.NextMatchID != nil {
		return settleGrandFinal(ctx, exec, repos, m)
	}

	if m.NextMatchID != nil && m.WinnerTeamID != nil {
		if err := placeTeam(ctx, exec, repos, *m.NextMatchID, derefInt(m.NextMatchSlot), *m.WinnerTeamID, seedOf(m, *m.WinnerTeamID)); err != nil {
			return err
		}
	}
	if m.ConsolationMatchID != nil && m.LoserTeamID != nil {
		if err := placeTeam(ctx, exec, repos, *m.ConsolationMatchID, derefInt(m.ConsolationMatchSlot), *m.LoserTeamID, seedOf(m, *m.LoserTeamID)); err != nil {
			return err
		}
	}
	return nil
}

// settleGrandFinal closes the reset as a bye when the winners-bracket
// champion (slot 1) wins, otherwise puts both finalists into it.
func settleGrandFinal(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, gf *models.Match) error {
	if gf.WinnerTeamID == nil || gf.LoserTeamID == nil {
		return fmt.Errorf("%w: grand final %d has no winner", ErrIntegrityConflict, gf.ID)
	}
	winner := *gf.WinnerTeamID
	if gf.Team1ID == nil || *gf.Team1ID != winner {
		if err := placeTeam(ctx, exec, repos, *gf.NextMatchID, models.Slot1, winner, seedOf(gf, winner)); err != nil {
			return err
		}
		return placeTeam(ctx, exec, repos, *gf.NextMatchID, models.Slot2, *gf.LoserTeamID, seedOf(gf, *gf.LoserTeamID))
	}

	reset, err := repos.Matches.GetByIDForUpdate(ctx, exec, *gf.NextMatchID)
	if err != nil {
		return translateRepoError(err)
	}
	if reset.Status.IsTerminal() {
		if reset.Status == models.MatchStatusBye && reset.WinnerTeamID != nil && *reset.WinnerTeamID == winner {
			return nil
		}
		return fmt.Errorf("%w: grand final reset %d is already %s", ErrIntegrityConflict, reset.ID, reset.Status)
	}
	if reset.FilledSlots() > 0 && !reset.HasTeam(winner) {
		return fmt.Errorf("%w: grand final reset %d holds another team", ErrIntegrityConflict, reset.ID)
	}
	reset.Team1ID, reset.Team1SeedID = intPtr(winner), seedOf(gf, winner)
	reset.Team2ID, reset.Team2SeedID = nil, nil
	reset.Status = models.MatchStatusPending
	if err := repos.Matches.UpdateSlots(ctx, exec, reset); err != nil {
		return translateRepoError(err)
	}
	now := time.Now()
	reset.WinnerTeamID, reset.LoserTeamID = intPtr(winner), nil
	reset.Status, reset.CompletedAt = models.MatchStatusBye, &now
	return translateRepoError(repos.Matches.Complete(ctx, exec, reset))
}

// placeTeam puts teamID into the target match. Placing a team that is already
// there is a no-op; any other occupied slot is an integrity conflict. A target
// expecting a single entrant closes as a bye and propagates in turn.
func placeTeam(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, targetID, slot, teamID int, seedID *int) error {
	target, err := repos.Matches.GetByIDForUpdate(ctx, exec, targetID)
	if err != nil {
		return translateRepoError(err)
	}
	if target.HasTeam(teamID) {
		return nil
	}
	if target.Status.IsTerminal() {
		return fmt.Errorf("%w: match %d is already %s, cannot place team %d", ErrIntegrityConflict, target.ID, target.Status, teamID)
	}

	if slot != models.Slot1 && slot != models.Slot2 {
		switch {
		case target.Team1ID == nil:
			slot = models.Slot1
		case target.Team2ID == nil:
			slot = models.Slot2
		default:
			return fmt.Errorf("%w: match %d has no open slot for team %d", ErrIntegrityConflict, target.ID, teamID)
		}
	}
	if occupant := target.TeamInSlot(slot); occupant != nil {
		return fmt.Errorf("%w: slot %d of match %d holds team %d, expected team %d", ErrIntegrityConflict, slot, target.ID, *occupant, teamID)
	}
	if slot == models.Slot1 {
		target.Team1ID, target.Team1SeedID = intPtr(teamID), seedID
	} else {
		target.Team2ID, target.Team2SeedID = intPtr(teamID), seedID
	}

	filled := target.FilledSlots()
	switch {
	case target.ExpectedEntrants == 1 && filled == 1:
		target.Status = models.MatchStatusPending
		if err := repos.Matches.UpdateSlots(ctx, exec, target); err != nil {
			return translateRepoError(err)
		}
		now := time.Now()
		target.WinnerTeamID, target.LoserTeamID = intPtr(teamID), nil
		target.Status, target.CompletedAt = models.MatchStatusBye, &now
		if err := repos.Matches.Complete(ctx, exec, target); err != nil {
			return translateRepoError(err)
		}
		return propagate(ctx, exec, repos, target)
	case filled == 2:
		target.Status = models.MatchStatusReady
	default:
		target.Status = models.MatchStatusPending
	}
	return translateRepoError(repos.Matches.UpdateSlots(ctx, exec, target))
}

func seedOf(m *models.Match, teamID int) *int {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return m.Team1SeedID
	}
	if m.Team2ID != nil && *m.Team2ID == teamID {
		return m.Team2SeedID
	}
	return nil
}
