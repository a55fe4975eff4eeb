package pagetrans

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language describes a language offered by the site's language selector.
type Language struct {
	Code       string // Provider language code (e.g., "hi", "ta")
	Name       string // English name
	NativeName string // Name in the language itself
}

// SupportedLanguages lists the languages offered to users, English first.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "gu", Name: "Gujarati", NativeName: "ગુજરાતી"},
	{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	{Code: "ml", Name: "Malayalam", NativeName: "മലയാളം"},
	{Code: "pa", Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ"},
	{Code: "as", Name: "Assamese", NativeName: "অসমীয়া"},
	{Code: "or", Name: "Odia", NativeName: "ଓଡ଼ିଆ"},
	{Code: "ur", Name: "Urdu", NativeName: "اردو"},
}

// RTLLanguages contains base language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// NormalizeLanguage converts a language code to BCP 47 form (e.g., "pt_PT" → "pt-PT").
// Codes that do not parse are returned trimmed and lower-cased.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if code == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	return tag.String()
}

// BaseLanguage returns the base language subtag (e.g., "en" from "en-GB").
func BaseLanguage(code string) string {
	normalized := NormalizeLanguage(code)
	tag, err := language.Parse(normalized)
	if err != nil {
		return strings.Split(normalized, "-")[0]
	}
	base, _ := tag.Base()
	return base.String()
}

// IsDefaultLanguage reports whether code denotes the page's own language.
// Such targets never need translation.
func IsDefaultLanguage(code string) bool {
	return BaseLanguage(code) == DefaultLanguage
}

// GetLanguageName returns the English name for a language code.
// Falls back to the code itself if the language is unknown.
func GetLanguageName(code string) string {
	normalized := NormalizeLanguage(code)
	for _, l := range SupportedLanguages {
		if l.Code == normalized {
			return l.Name
		}
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// IsSupported reports whether code is one of SupportedLanguages.
func IsSupported(code string) bool {
	normalized := NormalizeLanguage(code)
	for _, l := range SupportedLanguages {
		if l.Code == normalized {
			return true
		}
	}
	return false
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if RTLLanguages[BaseLanguage(code)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}
