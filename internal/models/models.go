package models

import "time"

// DateLayout is the calendar-day format used for check-in dates.
const DateLayout = "2006-01-02"

// User is an identity provider account. Wellness data never lives here.
type User struct {
	ID              int       `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"` // Encrypted in DB
	EmailBlindIndex string    `db:"email_blind_index" json:"-"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PasswordReset is a single-use reset token issued by the recover flow.
type PasswordReset struct {
	TokenHash string     `db:"token_hash"`
	UserID    int        `db:"user_id"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
}

type MoodEntry struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	MoodScore   int      `json:"moodScore"`
	StressLevel int      `json:"stressLevel"`
	Thoughts    string   `json:"thoughts"`
	HeartRate   *int     `json:"heartRate,omitempty"`
	SleepHours  *float64 `json:"sleepHours,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// UserProgress is the per-user gamification singleton.
type UserProgress struct {
	TotalCheckIns int      `json:"totalCheckIns"`
	CurrentStreak int      `json:"currentStreak"`
	LongestStreak int      `json:"longestStreak"`
	Badges        []string `json:"badges"`
	AvatarLevel   int      `json:"avatarLevel"`
	LastCheckIn   *string  `json:"lastCheckIn,omitempty"`
}

// DefaultProgress is the record returned before the first check-in.
func DefaultProgress() UserProgress {
	return UserProgress{Badges: []string{}, AvatarLevel: 1}
}

// HasBadge reports whether id is already in the badge set.
func (p UserProgress) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b == id {
			return true
		}
	}
	return false
}
