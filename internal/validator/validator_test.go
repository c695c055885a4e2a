package validator

import "testing"

func TestCheckAccumulatesErrors(t *testing.T) {
	v := New()
	v.Check(true, "title", "must be provided")
	if !v.Valid() {
		t.Fatalf("expected valid with no failed checks, got %v", v.Errors)
	}
	v.Check(false, "title", "must be provided")
	v.Check(false, "year", "must be an integer")
	if v.Valid() {
		t.Fatal("expected invalid after failed checks")
	}
	if v.Errors["title"] != "must be provided" {
		t.Errorf("title error = %q", v.Errors["title"])
	}
	if v.Errors["year"] != "must be an integer" {
		t.Errorf("year error = %q", v.Errors["year"])
	}
}

func TestAddErrorKeepsFirstMessage(t *testing.T) {
	v := New()
	v.AddError("rating", "must be provided")
	v.AddError("rating", "must be a number")
	if got := v.Errors["rating"]; got != "must be provided" {
		t.Errorf("rating error = %q, want first message kept", got)
	}
}

func TestEmailRX(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.example.org", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.email, EmailRX); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}
