package models

import (
	"fmt"
	"slices"
)

// Profile keys accepted by [ProfileField].
const (
	ProfileName   = "name"
	ProfileEmail  = "email"
	ProfileBio    = "bio"
	ProfileTheme  = "theme"
	ProfileAvatar = "avatar"
)

// ProfileKeys lists the allowed keys in display order.
var ProfileKeys = []string{ProfileName, ProfileEmail, ProfileBio, ProfileTheme, ProfileAvatar}

// ProfileField is one cached listener setting.
type ProfileField struct {
	record
	name  string
	value string
}

// NewProfileField creates an unsaved field.
func NewProfileField(sequence int, name, value string) *ProfileField {
	return &ProfileField{record: newRecord(sequence), name: name, value: value}
}

func (p *ProfileField) Name() string      { return p.name }
func (p *ProfileField) Value() string     { return p.value }
func (p *ProfileField) SetValue(v string) { p.value = v }

// Validate rejects keys outside [ProfileKeys].
func (p *ProfileField) Validate() error {
	if p.id == "" {
		return fmt.Errorf("profile field ID is required")
	}
	if !slices.Contains(ProfileKeys, p.name) {
		return fmt.Errorf("unknown profile key %q", p.name)
	}
	return nil
}
