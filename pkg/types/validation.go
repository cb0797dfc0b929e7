package types

import "unicode/utf8"

// IsValidTitle checks a presentation title. Titles are display-only text;
// duplicates are allowed.
func IsValidTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= 1 && n <= 200
}

// IsValidNickname checks a participant nickname. Nicknames need not be
// unique within a presentation.
func IsValidNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= 1 && n <= 50
}

// Validate ensures a presentation meets creation requirements. Validation
// belongs to the HTTP boundary; the relay core never sees invalid input.
func (p *Presentation) Validate() error {
	if !IsValidTitle(p.Title) {
		return ErrInvalidTitle
	}
	if !IsValidNickname(p.Creator) {
		return ErrInvalidNickname
	}
	return nil
}
