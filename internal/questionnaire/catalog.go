// Package questionnaire holds the self-assessment catalog and the scoring
// engine that turns responses into a score and an interpretation band.
package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

type QuestionType string

const (
	Likert      QuestionType = "likert"
	MultiChoice QuestionType = "multiChoice"
	YesNo       QuestionType = "yesNo"
)

// LikertMax is the top of the 0..3 likert scale.
const LikertMax = 3

var ErrUnknownQuestionnaire = errors.New("unknown questionnaire")

type Question struct {
	ID       string       `yaml:"id" json:"id"`
	Text     string       `yaml:"text" json:"text"`
	Type     QuestionType `yaml:"type" json:"type"`
	Options  []string     `yaml:"options,omitempty" json:"options,omitempty"`
	MinLabel string       `yaml:"minLabel,omitempty" json:"minLabel,omitempty"`
	MaxLabel string       `yaml:"maxLabel,omitempty" json:"maxLabel,omitempty"`
}

type ScoreRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

func (r ScoreRange) Contains(score int) bool {
	return r.Min <= score && score <= r.Max
}

type Band struct {
	ScoreRange ScoreRange `yaml:"scoreRange" json:"scoreRange"`
	Level      string     `yaml:"level" json:"level"`
	Advice     string     `yaml:"advice" json:"advice"`
}

type Questionnaire struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Category    string     `yaml:"category" json:"category"`
	Questions   []Question `yaml:"questions" json:"questions"`
	Bands       []Band     `yaml:"bands" json:"interpretationGuide"`
}

// Catalog is an ordered, read-only set of questionnaires.
type Catalog struct {
	items []Questionnaire
	byID  map[string]int
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded questionnaire catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Questionnaires []Questionnaire `yaml:"questionnaires"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Questionnaires...)
}

func New(items ...Questionnaire) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(items))}
	for _, q := range items {
		if q.ID == "" {
			return nil, errors.New("questionnaire without id")
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate questionnaire %q", q.ID)
		}
		c.byID[q.ID] = len(c.items)
		c.items = append(c.items, q)
	}
	return c, nil
}

func (c *Catalog) All() []Questionnaire {
	return append([]Questionnaire(nil), c.items...)
}

func (c *Catalog) Get(id string) (Questionnaire, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Questionnaire{}, false
	}
	return c.items[i], true
}

// Validate checks every questionnaire for well-formed questions and for bands
// that are contiguous, non-overlapping and cover 0 through the larger of the
// displayed and the achievable maximum.
func (c *Catalog) Validate() error {
	var errs []error
	for _, q := range c.items {
		if err := ValidateQuestionnaire(q); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", q.ID, err))
		}
	}
	return errors.Join(errs...)
}

func ValidateQuestionnaire(q Questionnaire) error {
	var errs []error
	seen := make(map[string]bool, len(q.Questions))
	for _, qq := range q.Questions {
		if seen[qq.ID] {
			errs = append(errs, fmt.Errorf("duplicate question %q", qq.ID))
		}
		seen[qq.ID] = true
		switch qq.Type {
		case Likert, YesNo:
		case MultiChoice:
			if len(qq.Options) == 0 {
				errs = append(errs, fmt.Errorf("question %q: multiChoice without options", qq.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("question %q: unknown type %q", qq.ID, qq.Type))
		}
	}

	if len(q.Bands) == 0 {
		return errors.Join(append(errs, errors.New("no interpretation bands"))...)
	}
	bands := append([]Band(nil), q.Bands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].ScoreRange.Min < bands[j].ScoreRange.Min })
	if bands[0].ScoreRange.Min != 0 {
		errs = append(errs, fmt.Errorf("bands start at %d, want 0", bands[0].ScoreRange.Min))
	}
	for i, b := range bands {
		if b.ScoreRange.Min > b.ScoreRange.Max {
			errs = append(errs, fmt.Errorf("band %q: min %d > max %d", b.Level, b.ScoreRange.Min, b.ScoreRange.Max))
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1].ScoreRange.Max
		switch {
		case b.ScoreRange.Min <= prev:
			errs = append(errs, fmt.Errorf("band %q overlaps previous band at %d", b.Level, b.ScoreRange.Min))
		case b.ScoreRange.Min > prev+1:
			errs = append(errs, fmt.Errorf("gap between %d and %d", prev, b.ScoreRange.Min))
		}
	}
	top := DisplayedMax(q)
	if a := AchievableMax(q); a > top {
		top = a
	}
	if last := bands[len(bands)-1].ScoreRange.Max; last < top {
		errs = append(errs, fmt.Errorf("bands end at %d, scores reach %d", last, top))
	}
	return errors.Join(errs...)
}
