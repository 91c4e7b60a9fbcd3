package phone

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("55", "9")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "5541998712446", "5541998712446"},
		{"formatted national mobile", "(41) 99871-2446", "5541998712446"},
		{"national without ninth digit", "4198712446", "554198712446"},
		{"plus and country code", "+55 41 99871-2446", "5541998712446"},
		{"empty", "", ""},
		{"letters only", "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromJID(t *testing.T) {
	n := NewNormalizer("55", "9")

	if got := n.FromJID("5541998712446@s.whatsapp.net"); got != "5541998712446" {
		t.Errorf("FromJID = %q, want 5541998712446", got)
	}
	if got := n.FromJID("5541998712446"); got != "5541998712446" {
		t.Errorf("FromJID without suffix = %q, want 5541998712446", got)
	}
}

func TestVariants(t *testing.T) {
	n := NewNormalizer("55", "9")

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			// 11-digit national starting with 9 after the area code: the
			// ninth-digit-stripped form is a candidate too.
			name: "mobile with ninth digit",
			in:   "5541998712446",
			want: []string{"5541998712446", "41998712446", "554198712446"},
		},
		{
			name: "mobile without ninth digit",
			in:   "554198712446",
			want: []string{"554198712446", "4198712446", "5541998712446"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Variants(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Variants(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVariantsDeduplicates(t *testing.T) {
	n := NewNormalizer("55", "9")

	got := n.Variants("5541998712446")
	seen := make(map[string]bool)
	for _, v := range got {
		if seen[v] {
			t.Fatalf("duplicate variant %q in %v", v, got)
		}
		seen[v] = true
	}
}
