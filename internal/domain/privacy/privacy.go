// Package privacy models per-field profile visibility as a fixed-shape record.
package privacy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Visibility is the audience allowed to see a profile field.
type Visibility int

// Visibility levels, from widest to narrowest audience.
const (
	Public Visibility = iota
	Friends
	Private
)

// Relationship describes who is looking at a profile.
type Relationship int

// Viewer relationships, from least to most trusted.
const (
	Stranger Relationship = iota
	Friend
	Self
)

// Field enumerates the profile fields whose visibility is configurable.
type Field int

// Configurable profile fields.
const (
	FieldDisplayName Field = iota
	FieldAvatar
	FieldWorkouts
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case Friends:
		return "FRIENDS"
	case Private:
		return "PRIVATE"
	default:
		return fmt.Sprintf("Visibility(%d)", int(v))
	}
}

// ParseVisibility accepts PUBLIC, FRIENDS or PRIVATE in any case.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PUBLIC", "":
		return Public, nil
	case "FRIENDS":
		return Friends, nil
	case "PRIVATE":
		return Private, nil
	default:
		return Public, fmt.Errorf("unknown visibility %q", s)
	}
}

// MarshalJSON encodes the level by name.
func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a level name.
func (v *Visibility) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVisibility(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Allows reports whether a viewer with rel may see data guarded by v.
func (v Visibility) Allows(rel Relationship) bool {
	switch v {
	case Public:
		return true
	case Friends:
		return rel >= Friend
	default:
		return rel == Self
	}
}

// Settings holds one visibility per configurable field. The zero value is all public.
type Settings struct {
	DisplayName Visibility `json:"display_name"`
	Avatar      Visibility `json:"avatar"`
	Workouts    Visibility `json:"workouts"`
}

// Visibility returns the level configured for f.
func (s Settings) Visibility(f Field) Visibility {
	switch f {
	case FieldDisplayName:
		return s.DisplayName
	case FieldAvatar:
		return s.Avatar
	case FieldWorkouts:
		return s.Workouts
	default:
		return Private
	}
}

// Allows reports whether a viewer with rel may see field f.
func (s Settings) Allows(f Field, rel Relationship) bool {
	return s.Visibility(f).Allows(rel)
}
