package intent

import (
	"regexp"
	"strings"
)

// Kind is the coarse classification of an incoming chat message.
type Kind int

const (
	// KindNone means a regular knowledge question.
	KindNone Kind = iota
	// KindSchedule means the user wants to book a consultation.
	KindSchedule
)

// Intent is the result of classifying one message.
type Intent struct {
	Kind Kind
	// Explicit is true when the message contains a full booking phrase
	// rather than just mentioning consultations.
	Explicit bool
}

// ContactFields holds whatever contact details could be pulled out of a
// free-form message.
type ContactFields struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Date    string
	Time    string
	Message string
}

// Classifier detects scheduling intent with a fixed phrase list plus a
// weaker keyword fallback. Matching is case-insensitive on the raw
// message text.
type Classifier struct {
	explicitPhrases []string
	weakKeywords    []string
	fieldPatterns   map[string]*regexp.Regexp
}

func NewClassifier() *Classifier {
	return &Classifier{
		explicitPhrases: []string{
			"schedule a consultation",
			"book a consultation",
			"schedule consultation",
			"book consultation",
			"want to schedule",
			"want to book",
			"need consultation",
			"get consultation",
			"have consultation",
			"set up consultation",
			"arrange consultation",
			"plan consultation",
			"organize consultation",
		},
		weakKeywords: []string{
			"consultation",
			"meeting",
			"appointment",
			"call",
			"demo",
			"discuss",
			"talk",
			"consult",
		},
		fieldPatterns: map[string]*regexp.Regexp{
			"name":    regexp.MustCompile(`(?i)\b(?:my name is|name is|name[:=]|i am|this is)\s*([a-zA-Z][a-zA-Z .'-]{0,48}[a-zA-Z.])`),
			"email":   regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
			"phone":   regexp.MustCompile(`(\+?\d[\d\s().-]{6,}\d)`),
			"company": regexp.MustCompile(`(?i)\b(?:company is|company[:=]|work at|work for)\s*([a-zA-Z0-9][a-zA-Z0-9 &.'-]{0,48})`),
			"date":    regexp.MustCompile(`(?i)\b(?:date[:=]?|on)\s+(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`),
			"time":    regexp.MustCompile(`(?i)\b(?:time[:=]?|at)\s+(\d{1,2}:\d{2}\s?(?:am|pm)?)`),
			"message": regexp.MustCompile(`(?i)\b(?:message[:=]|about|regarding)\s+(.{5,200})`),
		},
	}
}

// Classify inspects a single message for scheduling intent. An explicit
// phrase wins over keyword mentions.
func (c *Classifier) Classify(message string) Intent {
	lower := strings.ToLower(message)

	for _, phrase := range c.explicitPhrases {
		if strings.Contains(lower, phrase) {
			return Intent{Kind: KindSchedule, Explicit: true}
		}
	}

	for _, keyword := range c.weakKeywords {
		if containsWord(lower, keyword) {
			return Intent{Kind: KindSchedule, Explicit: false}
		}
	}

	return Intent{Kind: KindNone}
}

// ExtractContactFields pulls contact details out of a message. It only
// attempts extraction when the message shows scheduling intent, and only
// reports success when at least a name and an email were found.
func (c *Classifier) ExtractContactFields(message string) (*ContactFields, bool) {
	if c.Classify(message).Kind != KindSchedule {
		return nil, false
	}

	fields := &ContactFields{}
	extract := func(key string) string {
		m := c.fieldPatterns[key].FindStringSubmatch(message)
		if len(m) < 2 {
			return ""
		}
		return strings.TrimSpace(m[1])
	}

	fields.Name = extract("name")
	fields.Email = extract("email")
	fields.Phone = extract("phone")
	fields.Company = extract("company")
	fields.Date = extract("date")
	fields.Time = extract("time")
	fields.Message = extract("message")

	if fields.Name == "" || fields.Email == "" {
		return nil, false
	}

	return fields, true
}

// containsWord matches a keyword on word boundaries so "call" does not
// fire on "technically".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)

		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
