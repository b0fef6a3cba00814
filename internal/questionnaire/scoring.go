package questionnaire

// MaxResponse is the highest response value the question accepts.
func (q Question) MaxResponse() int {
	switch q.Type {
	case Likert:
		return LikertMax
	case YesNo:
		return 1
	case MultiChoice:
		if len(q.Options) == 0 {
			return 0
		}
		return len(q.Options) - 1
	}
	return 0
}

// Accepts reports whether v is inside the question's response range.
func (q Question) Accepts(v int) bool {
	return v >= 0 && v <= q.MaxResponse()
}

// Choices lists the label for each response value, lowest first.
func (q Question) Choices() []string {
	switch q.Type {
	case YesNo:
		return []string{"No", "Yes"}
	case MultiChoice:
		return append([]string(nil), q.Options...)
	}
	return nil
}

// Score sums the recorded responses. Missing responses, out-of-range values
// and responses to unknown question ids add nothing.
func Score(q Questionnaire, responses map[string]int) int {
	total := 0
	for _, qq := range q.Questions {
		v, ok := responses[qq.ID]
		if !ok || !qq.Accepts(v) {
			continue
		}
		total += v
	}
	return total
}

// Interpret returns the first band containing score.
func Interpret(q Questionnaire, score int) (Band, bool) {
	for _, b := range q.Bands {
		if b.ScoreRange.Contains(score) {
			return b, true
		}
	}
	return Band{}, false
}

// DisplayedMax is the "out of" figure shown next to a result. It counts every
// question as worth LikertMax, which overstates yes/no questions and
// understates multiple choice questions with more than four options.
func DisplayedMax(q Questionnaire) int {
	return len(q.Questions) * LikertMax
}

// AchievableMax is the highest score the questions can actually produce.
func AchievableMax(q Questionnaire) int {
	total := 0
	for _, qq := range q.Questions {
		total += qq.MaxResponse()
	}
	return total
}

// Complete reports whether every question has an in-range response.
func Complete(q Questionnaire, responses map[string]int) bool {
	for _, qq := range q.Questions {
		v, ok := responses[qq.ID]
		if !ok || !qq.Accepts(v) {
			return false
		}
	}
	return true
}

type Result struct {
	QuestionnaireID string `json:"questionnaireId"`
	Score           int    `json:"score"`
	DisplayedMax    int    `json:"displayedMax"`
	AchievableMax   int    `json:"achievableMax"`
	Answered        int    `json:"answered"`
	Band            *Band  `json:"band,omitempty"`
}

// Evaluate scores responses against the questionnaire with the given id.
// A score outside every band yields a Result with a nil Band, not an error.
func (c *Catalog) Evaluate(id string, responses map[string]int) (Result, error) {
	q, ok := c.Get(id)
	if !ok {
		return Result{}, ErrUnknownQuestionnaire
	}
	res := Result{
		QuestionnaireID: q.ID,
		Score:           Score(q, responses),
		DisplayedMax:    DisplayedMax(q),
		AchievableMax:   AchievableMax(q),
	}
	for _, qq := range q.Questions {
		if v, ok := responses[qq.ID]; ok && qq.Accepts(v) {
			res.Answered++
		}
	}
	if b, ok := Interpret(q, res.Score); ok {
		res.Band = &b
	}
	return res, nil
}
