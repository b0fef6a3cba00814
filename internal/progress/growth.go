package progress

import "mindbloom/internal/models"

type Stage struct {
	Level       int
	Emoji       string
	Name        string
	Description string
}

var Stages = []Stage{
	{1, "🌱", "Seedling", "Just beginning your journey"},
	{2, "🌿", "Sprout", "Growing steadily"},
	{3, "🪴", "Young Plant", "Building strong roots"},
	{4, "🌳", "Tree", "Flourishing and strong"},
	{5, "🌸", "Blooming", "Full of vitality"},
}

// StageFor maps an avatar level onto Stages, clamping past the last stage.
func StageFor(level int) Stage {
	i := level - 1
	if i < 0 {
		i = 0
	}
	if i >= len(Stages) {
		i = len(Stages) - 1
	}
	return Stages[i]
}

// UnlocksAt is the total check-in count at which the stage is reached.
func (s Stage) UnlocksAt() int {
	return (s.Level - 1) * CheckInsPerLevel
}

// Badge describes one achievement. reflection-pro and wellness-champion have
// no unlocking rule yet and are listed so they render as locked.
type Badge struct {
	ID          string
	Icon        string
	Name        string
	Description string
	Earned      bool
}

var badgeCatalog = []Badge{
	{ID: BadgeWeekWarrior, Icon: "🏅", Name: "Week Warrior", Description: "Completed 7 check-ins"},
	{ID: BadgeStreakMaster, Icon: "🔥", Name: "Streak Master", Description: "7-day streak achieved"},
	{ID: BadgeReflectionPro, Icon: "✨", Name: "Reflection Pro", Description: "Deep self-reflection"},
	{ID: BadgeWellnessChampion, Icon: "🏆", Name: "Wellness Champion", Description: "Exceptional consistency"},
}

// Badges returns the badge catalog with Earned set from p.
func Badges(p models.UserProgress) []Badge {
	out := make([]Badge, len(badgeCatalog))
	for i, b := range badgeCatalog {
		b.Earned = p.HasBadge(b.ID)
		out[i] = b
	}
	return out
}

func BadgeByID(id string) (Badge, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// NextLevelFraction is the share of the current level already completed.
func NextLevelFraction(p models.UserProgress) float64 {
	return float64(p.TotalCheckIns%CheckInsPerLevel) / CheckInsPerLevel
}

// Motivation picks the encouragement line shown with the avatar.
func Motivation(p models.UserProgress) string {
	switch {
	case p.CurrentStreak >= 7:
		return "You're on fire! Your consistency is inspiring."
	case p.CurrentStreak >= 3:
		return "Great momentum! Keep nurturing your wellbeing."
	case p.TotalCheckIns >= 10:
		return "Look how far you've come! Every step matters."
	case p.TotalCheckIns > 0:
		return "You've started your journey - that's the hardest part!"
	}
	return "Begin your wellness journey today!"
}

// View bundles everything the growth screen shows.
type View struct {
	Progress          models.UserProgress
	Stage             Stage
	Badges            []Badge
	NextLevelFraction float64
	Motivation        string
}

func NewView(p models.UserProgress) View {
	return View{
		Progress:          p,
		Stage:             StageFor(p.AvatarLevel),
		Badges:            Badges(p),
		NextLevelFraction: NextLevelFraction(p),
		Motivation:        Motivation(p),
	}
}
