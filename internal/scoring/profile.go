package scoring

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformedProfile is returned when a record lacks a field scoring cannot do without.
var ErrMalformedProfile = errors.New("malformed profile")

// Record is a candidate as delivered by the remote service.
// City is empty when the candidate did not declare one.
type Record struct {
	ID         string
	Name       string
	BirthDate  string
	PhotoCount int
	BadgeCount int
	Bio        string
	Distance   float64
	City       string
	Interests  []string
}

// Profile is a scored candidate. It is read-only after NewProfile.
type Profile struct {
	id        string
	name      string
	age       int
	photos    int
	badges    int
	bio       string
	distance  float64
	city      string
	interests []string

	score float64
}

// NewProfile derives the age from the record's birth date relative to now
// and computes the score once.
func NewProfile(r Record, weights *WeightTable, now time.Time) (*Profile, error) {
	if weights == nil {
		return nil, errors.New("weight table is required")
	}

	year, err := birthYear(r.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %q: %v", ErrMalformedProfile, r.ID, err)
	}

	if r.PhotoCount < 0 || r.BadgeCount < 0 {
		return nil, fmt.Errorf("%w: profile %q: negative photo or badge count", ErrMalformedProfile, r.ID)
	}

	p := &Profile{
		id:        r.ID,
		name:      r.Name,
		age:       now.Year() - year,
		photos:    r.PhotoCount,
		badges:    r.BadgeCount,
		bio:       r.Bio,
		distance:  r.Distance,
		city:      strings.TrimSpace(r.City),
		interests: slices.Clone(r.Interests),
	}
	p.score = Score(p, weights)

	return p, nil
}

// Score returns the score computed at construction.
func (p *Profile) Score() float64 {
	return p.score
}

func (p *Profile) ID() string        { return p.id }
func (p *Profile) Name() string      { return p.name }
func (p *Profile) Age() int          { return p.age }
func (p *Profile) Photos() int       { return p.photos }
func (p *Profile) Badges() int       { return p.badges }
func (p *Profile) Bio() string       { return p.bio }
func (p *Profile) Distance() float64 { return p.distance }

// City is empty when the candidate did not declare one.
func (p *Profile) City() string { return p.city }

// Interests returns a copy of the selected interests.
func (p *Profile) Interests() []string {
	return slices.Clone(p.interests)
}

// BioLength is the bio length in runes.
func (p *Profile) BioLength() int {
	return utf8.RuneCountInString(p.bio)
}

func birthYear(date string) (int, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, errors.New("birth date is missing")
	}
	if len(date) < 4 {
		return 0, fmt.Errorf("birth date %q is too short", date)
	}

	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("birth date %q has no year", date)
	}

	return year, nil
}
