package pagetrans

import "testing"

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"hi", "Hindi"},
		{"ta", "Tamil"},
		{"en", "English"},
		{"de", "German"},         // outside the site catalog
		{"unknown!", "unknown!"}, // fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ur", "rtl"},
		{"ar", "rtl"},
		{"ar_SA", "rtl"},
		{"hi", "ltr"},
		{"ta", "ltr"},
		{"en", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestIsRTL(t *testing.T) {
	if !IsRTL("ur") {
		t.Error("IsRTL(ur) should be true")
	}
	if IsRTL("hi") {
		t.Error("IsRTL(hi) should be false")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hi", "hi"},
		{" HI ", "hi"},
		{"pt_PT", "pt-PT"},
		{"en-us", "en-US"},
		{"", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeLanguage(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsDefaultLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"en", true},
		{"EN", true},
		{"en_GB", true},
		{"", true},
		{"hi", false},
		{"bn", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsDefaultLanguage(tt.input); got != tt.expected {
				t.Errorf("IsDefaultLanguage(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for _, l := range SupportedLanguages {
		if !IsSupported(l.Code) {
			t.Errorf("IsSupported(%q) should be true", l.Code)
		}
	}
	if IsSupported("fr") {
		t.Error("IsSupported(fr) should be false")
	}
}
