// Package scoring composes findings into the final compliance report: a
// severity-weighted health score, a three-band classification, and the
// normalized display metadata.
package scoring

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Severity penalties subtracted from the starting score, per finding.
const (
	PenaltyHigh   = 25
	PenaltyMedium = 12
	PenaltyLow    = 5
)

// Classification thresholds, inclusive at the lower bound of each band.
const (
	GreenThreshold  = 85
	YellowThreshold = 60
)

// MaxScore is the score of a record with no findings.
const MaxScore = 100

// Compose aggregates findings into a report. The score starts at MaxScore,
// loses the severity penalty for every finding, and is clamped to [0,100]
// once at the end. Findings keep engine order; metadata comes from
// normalizing the input record.
func Compose(r domain.Record, findings []domain.Finding) *domain.Report {
	score := MaxScore
	for _, f := range findings {
		score -= Penalty(f.Severity)
	}
	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}

	return &domain.Report{
		Level:  Classify(score),
		Score:  score,
		Issues: findings,
		Meta:   domain.Normalize(r),
	}
}

// Penalty returns the score penalty for a severity. Unknown severities cost
// nothing rather than failing: the composer degrades, it never errors.
func Penalty(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return PenaltyHigh
	case domain.SeverityMedium:
		return PenaltyMedium
	case domain.SeverityLow:
		return PenaltyLow
	default:
		return 0
	}
}

// Classify maps a clamped score to its level.
func Classify(score int) domain.Level {
	switch {
	case score >= GreenThreshold:
		return domain.LevelGreen
	case score >= YellowThreshold:
		return domain.LevelYellow
	default:
		return domain.LevelRed
	}
}
