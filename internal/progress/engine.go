// Package progress advances the streak, level and badge state after each
// daily check-in and describes that state for display.
package progress

import (
	"errors"
	"fmt"
	"time"

	"mindbloom/internal/models"
)

// CheckInsPerLevel is how many check-ins it takes to grow one avatar level.
const CheckInsPerLevel = 7

const (
	BadgeWeekWarrior      = "week-warrior"
	BadgeStreakMaster     = "streak-master"
	BadgeReflectionPro    = "reflection-pro"
	BadgeWellnessChampion = "wellness-champion"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrCheckInBeforeLast = errors.New("check-in date is before the last check-in")
	ErrInvalidDate       = errors.New("invalid check-in date")
)

// Outcome is the result of applying one check-in.
type Outcome struct {
	Progress  models.UserProgress
	NewBadges []string
}

// Apply advances prev by one check-in on the calendar day today (YYYY-MM-DD).
//
// A check-in on the same day as, or before, prev.LastCheckIn is rejected and
// prev is returned unchanged alongside the error. A LastCheckIn that does not
// parse as a date is treated as absent.
func Apply(prev models.UserProgress, today string) (Outcome, error) {
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return Outcome{Progress: prev}, fmt.Errorf("%w: %q", ErrInvalidDate, today)
	}

	streak := 1
	if prev.LastCheckIn != nil {
		if last, err := time.Parse(models.DateLayout, *prev.LastCheckIn); err == nil {
			switch diff := DaysBetween(last, day); {
			case diff == 0:
				return Outcome{Progress: prev}, ErrAlreadyCheckedIn
			case diff < 0:
				return Outcome{Progress: prev}, ErrCheckInBeforeLast
			case diff == 1:
				streak = prev.CurrentStreak + 1
			}
		}
	}

	next := models.UserProgress{
		TotalCheckIns: prev.TotalCheckIns + 1,
		CurrentStreak: streak,
		LongestStreak: max(prev.LongestStreak, streak),
		Badges:        append(make([]string, 0, len(prev.Badges)+2), prev.Badges...),
		LastCheckIn:   &today,
	}
	next.AvatarLevel = LevelFor(next.TotalCheckIns)

	var awarded []string
	award := func(id string) {
		if !next.HasBadge(id) {
			next.Badges = append(next.Badges, id)
			awarded = append(awarded, id)
		}
	}
	if next.TotalCheckIns == CheckInsPerLevel {
		award(BadgeWeekWarrior)
	}
	if next.CurrentStreak == 7 {
		award(BadgeStreakMaster)
	}

	return Outcome{Progress: next, NewBadges: awarded}, nil
}

// LevelFor returns the avatar level reached after total check-ins.
func LevelFor(total int) int {
	if total < 0 {
		total = 0
	}
	return total/CheckInsPerLevel + 1
}

// DaysBetween counts whole calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
