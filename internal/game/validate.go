package game

import "unicode/utf8"

// ValidationResult is the structured outcome of Validate. Errors make
// the record unusable downstream; warnings flag suspicious-but-usable
// data worth surfacing to an operator.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate enforces structural and semantic constraints on a merged
// record. It is total: every input yields exactly one result and it
// never panics.
func Validate(meta GameMetadata) ValidationResult {
	errs := []string{}
	warnings := []string{}

	switch {
	case meta.Title == "" || meta.Title == UnknownTitle:
		errs = append(errs, "game title could not be extracted")
	case utf8.RuneCountInString(meta.Title) < 2:
		errs = append(errs, "game title is too short")
	case utf8.RuneCountInString(meta.Title) > 200:
		errs = append(errs, "game title is unusually long")
	}

	if !meta.Platform.Valid() {
		errs = append(errs, "invalid platform detected")
	}

	// Price is structurally free-or-number by type; malformed payloads
	// are rejected at decode time. Out-of-band amounts are only suspect.
	if !meta.Price.Free && (meta.Price.Amount < 0 || meta.Price.Amount > 1000) {
		warnings = append(warnings, "unusual price detected")
	}

	if !meta.Archetype.Valid() {
		errs = append(errs, "invalid game archetype")
	}

	if !meta.ReleaseState.Valid() {
		warnings = append(warnings, "unusual release state detected")
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
