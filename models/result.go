package models

import (
	"fmt"
	"strings"
	"time"
)

type MedalType string

const (
	MedalGold   MedalType = "gold"
	MedalSilver MedalType = "silver"
	MedalBronze MedalType = "bronze"
	MedalNone   MedalType = "none"
)

// MedalForPlacement is a pure function of placement.
func MedalForPlacement(placement int) MedalType {
	switch placement {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	}
	return MedalNone
}

const CertificatePrefix = "RC"

// CertificateNumber formats RC-<CODE>-<placement>-<result id>, e.g. RC-JLF-001-000042.
func CertificateNumber(categoryCode string, placement, resultID int) string {
	code := strings.ToUpper(strings.TrimSpace(categoryCode))
	if code == "" {
		code = "GEN"
	}
	return fmt.Sprintf("%s-%s-%03d-%06d", CertificatePrefix, code, placement, resultID)
}

// TournamentResult is a final placement within a tournament category.
type TournamentResult struct {
	ID                int        `json:"id" db:"id"`
	TournamentID      int        `json:"tournament_id" db:"tournament_id"`
	CategoryID        int        `json:"category_id" db:"category_id"`
	Placement         int        `json:"placement" db:"placement"`
	TeamID            int        `json:"team_id" db:"team_id"`
	Score             *float64   `json:"score,omitempty" db:"score"`
	MedalType         MedalType  `json:"medal_type" db:"medal_type"`
	IsPublished       bool       `json:"is_published" db:"is_published"`
	PublishedAt       *time.Time `json:"published_at,omitempty" db:"published_at"`
	VerifiedBy        *int       `json:"verified_by,omitempty" db:"verified_by"`
	CertificateNumber *string    `json:"certificate_number,omitempty" db:"certificate_number"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
