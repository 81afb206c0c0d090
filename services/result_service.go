package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/robotics-tournament-core/brackets"
	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/storage"
)

type ResultService interface {
	// GenerateResults writes placements for a completed tournament. tieOrder
	// lists team ids in the order the organizer decided for table ties; it is
	// only read when the final table has tied teams.
	GenerateResults(ctx context.Context, tournamentID int, tieOrder []int) ([]*models.TournamentResult, error)
	ListResults(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error)
	GenerateCertificate(ctx context.Context, resultID int) (*models.TournamentResult, error)
	PublishResult(ctx context.Context, resultID int, verifierID *int) (*models.TournamentResult, error)
	UnpublishResult(ctx context.Context, resultID int) (*models.TournamentResult, error)
}

type resultService struct {
	repos    Repositories
	uploader storage.FileUploader
	notifier Notifier
	logger   *slog.Logger
}

// NewResultService builds the publisher. uploader may be nil, in which case
// certificates are not archived.
func NewResultService(repos Repositories, uploader storage.FileUploader, notifier Notifier, logger *slog.Logger) ResultService {
	return &resultService{
		repos:    repos,
		uploader: uploader,
		notifier: notifierOrNoop(notifier),
		logger:   loggerOrDefault(logger),
	}
}

func (s *resultService) GenerateResults(ctx context.Context, tournamentID int, tieOrder []int) ([]*models.TournamentResult, error) {
	var results []*models.TournamentResult
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.repos.Tournaments.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return translateRepoError(err)
		}
		if err := requireStatus(t, models.StatusCompleted); err != nil {
			return err
		}
		existing, err := s.repos.Results.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list results of tournament %d: %w", tournamentID, err)
		}
		if len(existing) > 0 {
			results = existing
			return nil
		}
		p, err := refreshProgress(ctx, exec, s.repos, t)
		if err != nil {
			return err
		}
		results, err = generateResults(ctx, exec, s.repos, t, p, tieOrder)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(tournamentID, brackets.EventTournamentCompleted, results)
	return results, nil
}

func (s *resultService) ListResults(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error) {
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, translateRepoError(err)
	}
	results, err := s.repos.Results.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results of tournament %d: %w", tournamentID, err)
	}
	return results, nil
}

// GenerateCertificate assigns the result's certificate number on first call
// and returns the stored number on every later call.
func (s *resultService) GenerateCertificate(ctx context.Context, resultID int) (*models.TournamentResult, error) {
	var (
		res    *models.TournamentResult
		issued bool
	)
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		r, err := s.repos.Results.GetByID(ctx, exec, resultID)
		if err != nil {
			return translateRepoError(err)
		}
		if r.CertificateNumber != nil {
			res = r
			return nil
		}
		category, err := s.repos.Categories.GetCategory(ctx, exec, r.CategoryID)
		if err != nil {
			return translateRepoError(err)
		}
		number := models.CertificateNumber(category.Code, r.Placement, r.ID)
		err = s.repos.Results.SetCertificateNumber(ctx, exec, r.ID, number)
		switch {
		case errors.Is(err, repositories.ErrCertificateAlreadyIssued):
			// issued concurrently; keep the stored number
			r, err = s.repos.Results.GetByID(ctx, exec, resultID)
			if err != nil {
				return translateRepoError(err)
			}
		case err != nil:
			return translateRepoError(err)
		default:
			r.CertificateNumber = &number
			issued = true
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if issued {
		s.logger.InfoContext(ctx, "certificate issued", slog.Int("result_id", res.ID), slog.String("certificate_number", *res.CertificateNumber))
		s.archiveCertificate(ctx, res)
	}
	return res, nil
}

type certificateDocument struct {
	CertificateNumber string           `json:"certificate_number"`
	TournamentID      int              `json:"tournament_id"`
	CategoryID        int              `json:"category_id"`
	TeamID            int              `json:"team_id"`
	Placement         int              `json:"placement"`
	MedalType         models.MedalType `json:"medal_type"`
	Score             *float64         `json:"score,omitempty"`
	IssuedAt          time.Time        `json:"issued_at"`
}

// archiveCertificate stores the certificate document in object storage. The
// number is already committed, so a failed upload is only logged.
func (s *resultService) archiveCertificate(ctx context.Context, r *models.TournamentResult) {
	if s.uploader == nil {
		return
	}
	doc := certificateDocument{
		CertificateNumber: *r.CertificateNumber,
		TournamentID:      r.TournamentID,
		CategoryID:        r.CategoryID,
		TeamID:            r.TeamID,
		Placement:         r.Placement,
		MedalType:         r.MedalType,
		Score:             r.Score,
		IssuedAt:          time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode certificate", slog.Int("result_id", r.ID), slog.Any("error", err))
		return
	}
	out, err := s.uploader.Upload(ctx, storage.CertificateKey(doc.CertificateNumber), "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to archive certificate", slog.Int("result_id", r.ID), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "certificate archived", slog.Int("result_id", r.ID), slog.String("location", out.Location))
}

func (s *resultService) PublishResult(ctx context.Context, resultID int, verifierID *int) (*models.TournamentResult, error) {
	var res *models.TournamentResult
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		r, err := s.repos.Results.GetByID(ctx, exec, resultID)
		if err != nil {
			return translateRepoError(err)
		}
		if r.IsPublished {
			return fmt.Errorf("%w: result %d is already published", ErrInvalidState, resultID)
		}
		now := time.Now()
		if err := s.repos.Results.Publish(ctx, exec, resultID, verifierID, now); err != nil {
			return translateRepoError(err)
		}
		r.IsPublished, r.PublishedAt, r.VerifiedBy = true, &now, verifierID
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UnpublishResult clears the flag and the timestamp together.
func (s *resultService) UnpublishResult(ctx context.Context, resultID int) (*models.TournamentResult, error) {
	var res *models.TournamentResult
	err := s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		r, err := s.repos.Results.GetByID(ctx, exec, resultID)
		if err != nil {
			return translateRepoError(err)
		}
		if !r.IsPublished {
			return fmt.Errorf("%w: result %d is not published", ErrInvalidState, resultID)
		}
		if err := s.repos.Results.Unpublish(ctx, exec, resultID); err != nil {
			return translateRepoError(err)
		}
		r.IsPublished, r.PublishedAt = false, nil
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type placement struct {
	teamID int
	score  *float64
}

// generateResults derives placements from the finished bracket or table,
// stores one result per placement and records the podium on the tournament.
func generateResults(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament, p *progress, tieOrder []int) ([]*models.TournamentResult, error) {
	var (
		places []placement
		err    error
	)
	switch t.Format {
	case models.FormatElimination:
		places, err = eliminationPlacements(p)
	case models.FormatDoubleElimination:
		places, err = doubleEliminationPlacements(p)
	default:
		places, err = tablePlacements(ctx, exec, repos, t, tieOrder)
	}
	if err != nil {
		return nil, err
	}

	results := make([]*models.TournamentResult, 0, len(places))
	for i, pl := range places {
		r := &models.TournamentResult{
			TournamentID: t.ID,
			CategoryID:   t.CategoryID,
			Placement:    i + 1,
			TeamID:       pl.teamID,
			Score:        pl.score,
			MedalType:    models.MedalForPlacement(i + 1),
		}
		if err := repos.Results.Create(ctx, exec, r); err != nil {
			return nil, translateRepoError(err)
		}
		results = append(results, r)
	}

	podium := make([]*int, 3)
	for i := 0; i < len(places) && i < 3; i++ {
		podium[i] = intPtr(places[i].teamID)
	}
	if err := repos.Tournaments.UpdatePodium(ctx, exec, t.ID, podium[0], podium[1], podium[2]); err != nil {
		return nil, translateRepoError(err)
	}
	t.WinnerTeamID, t.SecondTeamID, t.ThirdTeamID = podium[0], podium[1], podium[2]
	return results, nil
}

func decided(m *models.Match) bool {
	return m.WinnerTeamID != nil && m.LoserTeamID != nil &&
		(m.Status == models.MatchStatusCompleted || m.Status == models.MatchStatusForfeit)
}

// eliminationPlacements: the final is the winners-bracket match that feeds nothing.
func eliminationPlacements(p *progress) ([]placement, error) {
	var final *models.Match
	for _, m := range p.matches {
		b := p.byID[m.BracketID]
		if b != nil && b.BracketType == models.BracketWinners && m.NextMatchID == nil {
			final = m
			break
		}
	}
	if final == nil || !decided(final) {
		return nil, fmt.Errorf("%w: the final has not been decided", ErrInvalidState)
	}
	places := []placement{{teamID: *final.WinnerTeamID}, {teamID: *final.LoserTeamID}}
	for _, m := range p.matchesIn(brackets.ThirdPlaceRoundName) {
		if m.WinnerTeamID != nil {
			places = append(places, placement{teamID: *m.WinnerTeamID})
		}
	}
	return places, nil
}

// doubleEliminationPlacements reads the reset when it was played, else the grand final.
func doubleEliminationPlacements(p *progress) ([]placement, error) {
	var final *models.Match
	for _, m := range p.matchesIn(brackets.GrandFinalResetRoundName) {
		if decided(m) {
			final = m
		}
	}
	if final == nil {
		for _, m := range p.matchesIn(brackets.GrandFinalRoundName) {
			if decided(m) {
				final = m
			}
		}
	}
	if final == nil {
		return nil, fmt.Errorf("%w: the grand final has not been decided", ErrInvalidState)
	}
	places := []placement{{teamID: *final.WinnerTeamID}, {teamID: *final.LoserTeamID}}
	for _, m := range p.matchesIn(brackets.LosersFinalRoundName) {
		if m.LoserTeamID != nil {
			places = append(places, placement{teamID: *m.LoserTeamID})
		}
	}
	return places, nil
}

// tablePlacements follows the final ranking. Teams sharing a ranking are
// placed by tieOrder; without one the placements cannot be assigned.
func tablePlacements(ctx context.Context, exec repositories.SQLExecutor, repos Repositories, t *models.Tournament, tieOrder []int) ([]placement, error) {
	rows, err := repos.Standings.ListByTournament(ctx, exec, t.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of tournament %d: %w", t.ID, err)
	}
	position := make(map[int]int, len(tieOrder))
	for i, teamID := range tieOrder {
		if _, dup := position[teamID]; !dup {
			position[teamID] = i
		}
	}

	places := make([]placement, 0, len(rows))
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && derefInt(rows[j].Ranking) == derefInt(rows[i].Ranking) {
			j++
		}
		group := rows[i:j]
		if len(group) > 1 {
			ordered, err := orderTiedGroup(group, position)
			if err != nil {
				return nil, err
			}
			group = ordered
		}
		for _, s := range group {
			score := float64(s.LeaguePoints)
			places = append(places, placement{teamID: s.TeamID, score: &score})
		}
		i = j
	}
	return places, nil
}

func orderTiedGroup(group []*models.Standing, position map[int]int) ([]*models.Standing, error) {
	ordered := make([]*models.Standing, len(group))
	copy(ordered, group)
	for _, s := range ordered {
		if _, ok := position[s.TeamID]; !ok {
			return nil, fmt.Errorf("%w: team %d shares ranking %d", ErrUnresolvedTie, s.TeamID, derefInt(s.Ranking))
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return position[ordered[i].TeamID] < position[ordered[j].TeamID]
	})
	return ordered, nil
}
