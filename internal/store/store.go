// Package store is the on-device persistence layer for mood entries, chat
// history and progress.
//
// Every operation reads or writes a whole collection. There is no locking
// across operations: two processes appending at the same time can lose one
// of the writes, and the last writer wins.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindbloom/internal/kv"
	"mindbloom/internal/models"
)

const (
	KeyMoodEntries  = "mindbloom_mood_entries"
	KeyChatMessages = "mindbloom_chat_messages"
	KeyProgress     = "mindbloom_user_progress"
)

// TimestampLayout is how chat timestamps are written: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// timestamp layouts accepted when reading chat history back
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	models.DateLayout,
}

type Store struct {
	medium    kv.Medium
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	namespace string
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithNamespace prefixes every key with "<ns>:" so several users can share
// one medium.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

func New(medium kv.Medium, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the medium key used for one of the Key* collections.
func (s *Store) Key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

// Now exposes the store clock so collaborators agree on "today".
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) ListMoodEntries() []models.MoodEntry {
	var entries []models.MoodEntry
	if !s.read(KeyMoodEntries, &entries) || entries == nil {
		return []models.MoodEntry{}
	}
	return entries
}

// AppendMoodEntry assigns a fresh id to entry and appends it. Any id already
// set on entry is ignored.
func (s *Store) AppendMoodEntry(entry models.MoodEntry) (models.MoodEntry, error) {
	entry.ID = s.newID()
	entries := append(s.ListMoodEntries(), entry)
	if err := s.write(KeyMoodEntries, entries); err != nil {
		return models.MoodEntry{}, err
	}
	return entry, nil
}

// ListChatMessages returns stored messages in order, dropping any record that
// cannot be decoded or whose timestamp is missing or unparsable.
func (s *Store) ListChatMessages() []models.ChatMessage {
	var raw []json.RawMessage
	if !s.read(KeyChatMessages, &raw) {
		return []models.ChatMessage{}
	}
	out := make([]models.ChatMessage, 0, len(raw))
	for i, r := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal(r, &msg); err != nil {
			s.logger.Warn("dropping undecodable chat message", zap.Int("index", i), zap.Error(err))
			continue
		}
		if _, ok := ParseTimestamp(msg.Timestamp); !ok {
			s.logger.Warn("dropping chat message with invalid timestamp",
				zap.Int("index", i), zap.String("id", msg.ID), zap.String("timestamp", msg.Timestamp))
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (s *Store) AppendChatMessage(role models.Role, content string) (models.ChatMessage, error) {
	if !role.Valid() {
		return models.ChatMessage{}, fmt.Errorf("append chat message: unknown role %q", role)
	}
	msg := models.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC().Format(TimestampLayout),
	}
	messages := append(s.ListChatMessages(), msg)
	if err := s.write(KeyChatMessages, messages); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

func (s *Store) ClearChatHistory() error {
	if err := s.medium.Remove(s.Key(KeyChatMessages)); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

// GetProgress returns the stored progress, or the defaults when nothing has
// been stored or the stored record is unreadable. Fields missing from the
// stored record keep their default values.
func (s *Store) GetProgress() models.UserProgress {
	p := models.DefaultProgress()
	if !s.read(KeyProgress, &p) {
		return models.DefaultProgress()
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if p.AvatarLevel < 1 {
		p.AvatarLevel = 1
	}
	return p
}

func (s *Store) SetProgress(p models.UserProgress) error {
	if p.Badges == nil {
		p.Badges = []string{}
	}
	return s.write(KeyProgress, p)
}

// ParseTimestamp parses a stored chat timestamp.
func ParseTimestamp(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// read decodes the value under name into dst. It returns false when the key
// is absent or the payload cannot be used; failures are logged, not returned.
func (s *Store) read(name string, dst any) bool {
	key := s.Key(name)
	raw, ok, err := s.medium.Get(key)
	if err != nil {
		s.logger.Warn("local store read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("local store payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) write(name string, v any) error {
	key := s.Key(name)
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.medium.Set(key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
