package models

import (
	"slices"
	"strings"

	"docverify/pkg/platform/validation"
)

const (
	LevelCentral = "central"
	LevelState   = "state"
)

// Finder tags. A scheme carrying a tag only suits the listed answers.
const (
	TagLand       = "land"
	TagIrrigation = "irrig"
	TagAge        = "age"
	TagKYC        = "kyc"
)

var FinderTags = []string{TagLand, TagIrrigation, TagAge, TagKYC}

// Scheme is a government welfare scheme from the embedded catalog. A scheme
// with no Districts applies across its State; one with no Crops applies to
// every crop.
type Scheme struct {
	ID          string              `json:"id" validate:"required,notblank,max=64"`
	Name        string              `json:"name" validate:"required,notblank,max=200"`
	Description string              `json:"description" validate:"required,notblank"`
	Department  string              `json:"department,omitempty"`
	Level       string              `json:"level" validate:"required,oneof=central state"`
	State       string              `json:"state" validate:"required,notblank"`
	Districts   []string            `json:"districts,omitempty" validate:"dive,notblank"`
	Categories  []string            `json:"categories" validate:"required,min=1,dive,notblank"`
	Crops       []string            `json:"crops,omitempty" validate:"dive,notblank"`
	Eligibility []string            `json:"eligibility" validate:"required,min=1,dive,notblank"`
	Benefits    []string            `json:"benefits,omitempty"`
	Documents   []string            `json:"documents,omitempty"`
	Steps       []string            `json:"steps,omitempty"`
	Link        string              `json:"link,omitempty" validate:"omitempty,url"`
	Tags        map[string][]string `json:"tags,omitempty" validate:"omitempty,dive,keys,oneof=land irrig age kyc,endkeys,min=1"`
}

func (s *Scheme) Validate() error {
	return validation.Validate(s)
}

// Filter narrows a listing. Zero values match everything. Matching is case
// insensitive throughout.
type Filter struct {
	Category string
	State    string
	Level    string
	District string
	Crop     string
	// Eligibility matches a substring of any eligibility criterion.
	Eligibility string
	// Query matches a substring of the name, description, department or any
	// eligibility criterion.
	Query string
	// Answers holds the finder's answers keyed by tag. A scheme without the
	// tag accepts any answer.
	Answers map[string]string
}

func (f Filter) Matches(s *Scheme) bool {
	if f.Category != "" && !containsFold(s.Categories, f.Category) {
		return false
	}
	if f.State != "" && !strings.EqualFold(f.State, s.State) {
		return false
	}
	if f.Level != "" && !strings.EqualFold(f.Level, s.Level) {
		return false
	}
	if f.District != "" && len(s.Districts) > 0 && !containsFold(s.Districts, f.District) {
		return false
	}
	if f.Crop != "" && len(s.Crops) > 0 && !containsFold(s.Crops, f.Crop) {
		return false
	}
	for tag, answer := range f.Answers {
		allowed, tagged := s.Tags[tag]
		if answer != "" && tagged && !containsFold(allowed, answer) {
			return false
		}
	}
	if f.Eligibility != "" && !anyContainsFold(s.Eligibility, f.Eligibility) {
		return false
	}
	if f.Query != "" && !anyContainsFold(append([]string{s.Name, s.Description, s.Department}, s.Eligibility...), f.Query) {
		return false
	}
	return true
}

func containsFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}

func anyContainsFold(values []string, needle string) bool {
	needle = strings.ToLower(needle)
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.Contains(strings.ToLower(v), needle)
	})
}

type ListResponse struct {
	Schemes []*Scheme `json:"schemes"`
}
