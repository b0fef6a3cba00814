package chat

import (
	"math/rand"
	"strings"
)

// Rule maps a set of keywords to a pool of replies.
type Rule struct {
	Category string
	Keywords []string
	Replies  []string
}

// Matches reports whether lowered contains any of the rule's keywords.
func (r Rule) Matches(lowered string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

// DefaultRules are checked in order; the first match wins.
var DefaultRules = []Rule{
	{
		Category: "anxious",
		Keywords: []string{"anxious", "anxiety", "worried"},
		Replies: []string{
			"I hear that you're feeling anxious. That's a completely valid emotion. Let's take a moment together - can you tell me what's weighing on your mind right now? Sometimes naming our worries helps us see them more clearly.",
			"Anxiety can feel overwhelming. Let's take this one step at a time. What's weighing on your mind right now?",
			"It's completely normal to feel anxious. Would it help to talk through what's making you feel this way?",
			"I'm here with you. Remember, every feeling passes, even the difficult ones.",
		},
	},
	{
		Category: "sad",
		Keywords: []string{"sad", "down", "depressed"},
		Replies: []string{
			"Thank you for sharing that you're feeling down. It takes courage to acknowledge these feelings. Remember that it's okay not to be okay sometimes. What's one small thing that has brought you even a tiny bit of comfort today?",
			"I hear you. It sounds like today has been quite intense. Would you like to tell me more?",
			"It's okay to feel this way. Your emotions are valid, and I'm here to listen without judgment.",
			"Thank you for sharing that with me. Sometimes just expressing how we feel can bring a bit of relief.",
		},
	},
	{
		Category: "stressed",
		Keywords: []string{"stress", "overwhelmed"},
		Replies: []string{
			"It sounds like you're carrying a lot right now. When we feel overwhelmed, it can help to break things down into smaller pieces. What feels most urgent to you at this moment? Let's explore it together, one step at a time.",
		},
	},
	{
		Category: "happy",
		Keywords: []string{"happy", "good", "great"},
		Replies: []string{
			"I'm so glad to hear you're feeling positive! It's wonderful to celebrate these moments. What's contributing to this good feeling? Recognizing what brings us joy helps us create more of it in our lives.",
			"That's wonderful to hear! What's bringing you joy today?",
			"I'm so glad you're feeling good. These moments are precious, so savor them!",
			"Your positive energy is beautiful. Keep nurturing what makes you feel this way.",
		},
	},
	{
		Category: "tired",
		Keywords: []string{"tired", "exhausted", "drained"},
		Replies: []string{
			"Fatigue can weigh heavily on us, both physically and emotionally. Have you been able to rest adequately lately? Remember that taking time to recharge isn't selfish - it's essential for your wellbeing.",
			"It sounds like you've been carrying a lot. Rest is not a luxury, it's a necessity.",
			"Your body and mind are asking for care. What would help you feel more rested?",
			"Being tired is your system's way of telling you it needs attention. Listen to it.",
		},
	},
	{
		Category: "angry",
		Keywords: []string{"angry", "frustrated"},
		Replies: []string{
			"Anger and frustration are natural responses when things feel unfair or difficult. These feelings are telling you something important. What situation is triggering these emotions for you? Let's explore what's beneath the surface.",
		},
	},
	{
		Category: "lonely",
		Keywords: []string{"lonely", "alone"},
		Replies: []string{
			"Loneliness can feel very heavy. I want you to know that you're not alone in feeling this way, and I'm here with you right now. Have you been able to connect with anyone recently, even in small ways? Sometimes even brief connections can help.",
		},
	},
}

// GenericReplies is used when no rule matches.
var GenericReplies = []string{
	"I'm listening. Tell me more about what you're experiencing right now.",
	"That sounds like it's really affecting you. How long have you been feeling this way?",
	"Thank you for sharing that with me. What do you think you need most in this moment?",
	"I hear you. Your feelings are valid, and it's important that you're acknowledging them. What would help you feel even slightly better right now?",
	"It takes strength to express how you're feeling. What's one thing you've learned about yourself recently?",
	"I appreciate you opening up. How are you taking care of yourself today?",
	"I appreciate you sharing that with me. Every step you take to understand your feelings is a form of courage.",
	"Thank you for opening up. How does it feel to express these thoughts?",
	"I'm listening. Would you like to explore this feeling a bit more?",
	"That must be a lot to carry. You're doing your best, and that's what matters.",
	"Your awareness of your emotions shows real strength. Keep being honest with yourself.",
}

// Responder is the offline keyword responder.
type Responder struct {
	rules   []Rule
	generic []string
	rng     *rand.Rand
}

// NewResponder builds a responder over the default rules. A nil rng picks a
// time-seeded source.
func NewResponder(rng *rand.Rand) *Responder {
	return NewResponderWithRules(DefaultRules, GenericReplies, rng)
}

func NewResponderWithRules(rules []Rule, generic []string, rng *rand.Rand) *Responder {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Responder{rules: rules, generic: generic, rng: rng}
}

// Classify returns the first matching rule for text.
func (r *Responder) Classify(text string) (Rule, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range r.rules {
		if rule.Matches(lowered) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Reply picks a reply from the matching pool, or from the generic pool.
func (r *Responder) Reply(text string) string {
	pool := r.generic
	if rule, ok := r.Classify(text); ok && len(rule.Replies) > 0 {
		pool = rule.Replies
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[r.rng.Intn(len(pool))]
}
