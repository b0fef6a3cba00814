package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mindbloom/internal/models"
)

func TestStageForClamps(t *testing.T) {
	assert.Equal(t, "Seedling", StageFor(0).Name)
	assert.Equal(t, "Seedling", StageFor(1).Name)
	assert.Equal(t, "Tree", StageFor(4).Name)
	assert.Equal(t, "Blooming", StageFor(5).Name)
	assert.Equal(t, "Blooming", StageFor(42).Name)
}

func TestStageUnlocksAt(t *testing.T) {
	want := []int{0, 7, 14, 21, 28}
	for i, s := range Stages {
		if got := s.UnlocksAt(); got != want[i] {
			t.Fatalf("%s UnlocksAt=%d, want %d", s.Name, got, want[i])
		}
	}
}

func TestNextLevelFraction(t *testing.T) {
	assert.InDelta(t, 0.0, NextLevelFraction(models.UserProgress{TotalCheckIns: 14}), 1e-9)
	assert.InDelta(t, 3.0/7.0, NextLevelFraction(models.UserProgress{TotalCheckIns: 10}), 1e-9)
}

func TestMotivationLadder(t *testing.T) {
	cases := []struct {
		p    models.UserProgress
		want string
	}{
		{models.UserProgress{CurrentStreak: 7, TotalCheckIns: 7}, "You're on fire! Your consistency is inspiring."},
		{models.UserProgress{CurrentStreak: 3, TotalCheckIns: 30}, "Great momentum! Keep nurturing your wellbeing."},
		{models.UserProgress{CurrentStreak: 1, TotalCheckIns: 10}, "Look how far you've come! Every step matters."},
		{models.UserProgress{CurrentStreak: 1, TotalCheckIns: 1}, "You've started your journey - that's the hardest part!"},
		{models.DefaultProgress(), "Begin your wellness journey today!"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Motivation(tc.p))
	}
}

func TestBadgesEarnedFlags(t *testing.T) {
	badges := Badges(models.UserProgress{Badges: []string{BadgeStreakMaster}})
	assert.Len(t, badges, 4)
	earned := map[string]bool{}
	for _, b := range badges {
		earned[b.ID] = b.Earned
	}
	assert.True(t, earned[BadgeStreakMaster])
	assert.False(t, earned[BadgeWeekWarrior])
	assert.False(t, earned[BadgeReflectionPro])
	assert.False(t, earned[BadgeWellnessChampion])

	b, ok := BadgeByID(BadgeWeekWarrior)
	assert.True(t, ok)
	assert.Equal(t, "Week Warrior", b.Name)
}

func TestNewView(t *testing.T) {
	v := NewView(models.UserProgress{TotalCheckIns: 9, CurrentStreak: 2, AvatarLevel: 2, Badges: []string{BadgeWeekWarrior}})
	assert.Equal(t, "Sprout", v.Stage.Name)
	assert.InDelta(t, 2.0/7.0, v.NextLevelFraction, 1e-9)
	assert.Equal(t, "You've started your journey - that's the hardest part!", v.Motivation)
}
