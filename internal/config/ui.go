package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Field types of custom sign-up fields.
const (
	FieldString  = "string"
	FieldNumber  = "number"
	FieldBoolean = "boolean"
)

// Field is an additional sign-up and account field.
type Field struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder,omitempty"`
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required,omitempty"`
	Min         *int   `yaml:"min,omitempty"`
}

// Validate checks a submitted form value.
func (f Field) Validate(value string) error {
	if value == "" {
		if f.Required {
			return fmt.Errorf("%s is required", f.Label)
		}
		return nil
	}
	if f.Type != FieldNumber {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be a number", f.Label)
	}
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("%s must be at least %d", f.Label, *f.Min)
	}
	return nil
}

// UI configures the auth screens.
type UI struct {
	SocialProviders []string          `yaml:"social_providers"`
	MagicLink       bool              `yaml:"magic_link"`
	Localization    map[string]string `yaml:"localization"`
	Fields          []Field           `yaml:"fields"`
}

// DefaultUI returns the built-in UI settings.
func DefaultUI() UI {
	minAge := 18
	return UI{
		SocialProviders: []string{"github", "google"},
		Localization: map[string]string{
			"SIGN_IN":                     "Welcome Back",
			"SIGN_IN_DESCRIPTION":         "Sign in to your account to continue",
			"SIGN_UP":                     "Create Account",
			"SIGN_UP_DESCRIPTION":         "Join us today and get started",
			"MAGIC_LINK":                  "Passwordless Sign In",
			"MAGIC_LINK_DESCRIPTION":      "We'll send you a magic link to sign in",
			"FORGOT_PASSWORD":             "Forgot Password?",
			"FORGOT_PASSWORD_DESCRIPTION": "Enter your email to reset your password",
			"OR_CONTINUE_WITH":            "or continue with",
			"SETTINGS":                    "Account Settings",
			"SECURITY":                    "Security Settings",
			"SESSIONS":                    "Active Sessions",
		},
		Fields: []Field{
			{
				Name:        "company",
				Label:       "Company",
				Placeholder: "Your company name",
				Description: "Where do you work?",
				Type:        FieldString,
			},
			{
				Name:        "age",
				Label:       "Age",
				Placeholder: "Your age",
				Description: "Must be 18 or older",
				Type:        FieldNumber,
				Min:         &minAge,
			},
			{
				Name:        "newsletter",
				Label:       "Subscribe to newsletter",
				Description: "Get the latest updates and news",
				Type:        FieldBoolean,
			},
		},
	}
}

// LoadUI reads UI overrides from path on top of DefaultUI. A missing file
// yields the defaults. Localization keys are merged; lists are replaced.
func LoadUI(path string) (UI, error) {
	ui := DefaultUI()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ui, nil
	}
	if err != nil {
		return UI{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var override UI
	if err := yaml.Unmarshal(data, &override); err != nil {
		return UI{}, fmt.Errorf("invalid %s: %w", path, err)
	}
	if override.SocialProviders != nil {
		ui.SocialProviders = override.SocialProviders
	}
	ui.MagicLink = override.MagicLink
	for k, v := range override.Localization {
		ui.Localization[k] = v
	}
	if override.Fields != nil {
		ui.Fields = override.Fields
	}
	return ui, nil
}

// Text returns the localized string for key, or key itself.
func (u UI) Text(key string) string {
	if v, ok := u.Localization[key]; ok {
		return v
	}
	return key
}

// HasProvider reports whether a social provider is enabled.
func (u UI) HasProvider(name string) bool {
	return slices.Contains(u.SocialProviders, name)
}

// Field returns the custom field with the given name.
func (u UI) Field(name string) (Field, bool) {
	for _, f := range u.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
