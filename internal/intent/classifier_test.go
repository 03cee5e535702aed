package intent

import "testing"

func TestClassifyExplicitPhrase(t *testing.T) {
	c := NewClassifier()

	for _, msg := range []string{
		"I want to schedule a consultation",
		"Can I book a consultation next week?",
		"we need consultation about our cloud setup",
		"Please set up consultation with your team",
	} {
		got := c.Classify(msg)
		if got.Kind != KindSchedule || !got.Explicit {
			t.Errorf("expected explicit schedule intent for %q, got %+v", msg, got)
		}
	}
}

func TestClassifyKeywordMention(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("How much does a demo cost?")
	if got.Kind != KindSchedule {
		t.Fatalf("expected schedule intent, got %+v", got)
	}
	if got.Explicit {
		t.Error("keyword mention should not be explicit")
	}
}

func TestClassifyPlainQuestion(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("What services does Soft Techniques offer?")
	if got.Kind != KindNone {
		t.Errorf("expected no scheduling intent, got %+v", got)
	}
}

func TestClassifyKeywordNeedsWordBoundary(t *testing.T) {
	c := NewClassifier()

	// "call" inside "technically" must not trigger.
	got := c.Classify("Is that technically possible?")
	if got.Kind != KindNone {
		t.Errorf("substring match should not trigger intent, got %+v", got)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("I WANT TO BOOK a time")
	if got.Kind != KindSchedule || !got.Explicit {
		t.Errorf("uppercase phrase should match, got %+v", got)
	}
}

func TestExtractContactFields(t *testing.T) {
	c := NewClassifier()

	msg := "I want to schedule a consultation. My name is Jane Smith, email jane@example.com, phone +1 555 123 4567"
	fields, ok := c.ExtractContactFields(msg)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if fields.Name != "Jane Smith" {
		t.Errorf("unexpected name: %q", fields.Name)
	}
	if fields.Email != "jane@example.com" {
		t.Errorf("unexpected email: %q", fields.Email)
	}
	if fields.Phone == "" {
		t.Error("expected phone to be extracted")
	}
}

func TestExtractContactFieldsRequiresNameAndEmail(t *testing.T) {
	c := NewClassifier()

	// Email but no name.
	_, ok := c.ExtractContactFields("book a consultation, reach me at jane@example.com")
	if ok {
		t.Error("extraction should fail without a name")
	}

	// Name but no email.
	_, ok = c.ExtractContactFields("book a consultation, my name is Jane Smith")
	if ok {
		t.Error("extraction should fail without an email")
	}
}

func TestExtractContactFieldsRequiresIntent(t *testing.T) {
	c := NewClassifier()

	_, ok := c.ExtractContactFields("my name is Jane Smith, email jane@example.com")
	if ok {
		t.Error("extraction should not run without scheduling intent")
	}
}
