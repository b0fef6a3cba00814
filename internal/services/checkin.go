package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindbloom/internal/models"
	"mindbloom/internal/progress"
)

var validate = validator.New()

var ErrInvalidCheckIn = errors.New("invalid check-in")

// ErrAlreadyCheckedIn is returned for a second check-in on the same date.
var ErrAlreadyCheckedIn = progress.ErrAlreadyCheckedIn

type CheckInRequest struct {
	MoodScore   int      `json:"moodScore" validate:"required,gte=1,lte=10"`
	StressLevel int      `json:"stressLevel" validate:"required,gte=1,lte=10"`
	Thoughts    string   `json:"thoughts" validate:"max=10000"`
	HeartRate   *int     `json:"heartRate,omitempty" validate:"omitempty,gt=0,lte=300"`
	SleepHours  *float64 `json:"sleepHours,omitempty" validate:"omitempty,gte=0,lte=24"`
}

func ValidateCheckInRequest(body *CheckInRequest) error {
	if err := validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidCheckIn, strings.Join(parts, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidCheckIn, err)
	}
	return nil
}

// CheckInStore is the part of the local store check-ins touch.
type CheckInStore interface {
	ListMoodEntries() []models.MoodEntry
	AppendMoodEntry(entry models.MoodEntry) (models.MoodEntry, error)
	GetProgress() models.UserProgress
	SetProgress(p models.UserProgress) error
}

type CheckInResult struct {
	Entry     models.MoodEntry
	Progress  models.UserProgress
	NewBadges []string
}

type CheckInService struct {
	store  CheckInStore
	logger *zap.Logger
}

func NewCheckInService(store CheckInStore, logger *zap.Logger) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{store: store, logger: logger}
}

// CheckIn records today's entry and advances progress. The calendar date is
// taken from now in now's own location. A rejected check-in changes nothing.
func (s *CheckInService) CheckIn(req CheckInRequest, now time.Time) (CheckInResult, error) {
	if err := ValidateCheckInRequest(&req); err != nil {
		return CheckInResult{}, err
	}
	date := now.Format(models.DateLayout)
	if _, ok := s.entryOn(date); ok {
		return CheckInResult{}, ErrAlreadyCheckedIn
	}

	prev := s.store.GetProgress()
	outcome, err := progress.Apply(prev, date)
	if err != nil {
		return CheckInResult{}, err
	}

	// The entry is the commit point: progress is written first and rolled
	// back if the entry cannot be saved.
	if err := s.store.SetProgress(outcome.Progress); err != nil {
		return CheckInResult{}, fmt.Errorf("save progress: %w", err)
	}
	entry, err := s.store.AppendMoodEntry(models.MoodEntry{
		Date:        date,
		MoodScore:   req.MoodScore,
		StressLevel: req.StressLevel,
		Thoughts:    strings.TrimSpace(req.Thoughts),
		HeartRate:   req.HeartRate,
		SleepHours:  req.SleepHours,
	})
	if err != nil {
		if rerr := s.store.SetProgress(prev); rerr != nil {
			s.logger.Error("progress not rolled back after failed check-in", zap.String("date", date), zap.Error(rerr))
		}
		return CheckInResult{}, fmt.Errorf("save mood entry: %w", err)
	}

	s.logger.Info("check-in recorded",
		zap.String("date", date),
		zap.Int("streak", outcome.Progress.CurrentStreak),
		zap.Strings("new_badges", outcome.NewBadges),
	)
	return CheckInResult{Entry: entry, Progress: outcome.Progress, NewBadges: outcome.NewBadges}, nil
}

// Today returns the entry recorded on now's calendar date, if any.
func (s *CheckInService) Today(now time.Time) (models.MoodEntry, bool) {
	return s.entryOn(now.Format(models.DateLayout))
}

// Recent returns up to n entries, newest date first.
func (s *CheckInService) Recent(n int) []models.MoodEntry {
	entries := s.store.ListMoodEntries()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (s *CheckInService) Growth() progress.View {
	return progress.NewView(s.store.GetProgress())
}

func (s *CheckInService) entryOn(date string) (models.MoodEntry, bool) {
	for _, e := range s.store.ListMoodEntries() {
		if e.Date == date {
			return e, true
		}
	}
	return models.MoodEntry{}, false
}

// MoodEmoji is the face shown next to a mood score.
func MoodEmoji(score int) string {
	switch {
	case score >= 9:
		return "😄"
	case score >= 7:
		return "🙂"
	case score >= 5:
		return "😐"
	case score >= 3:
		return "😟"
	}
	return "😢"
}
