// Package classification maps the certificate classification codes reported
// by the validation service to semantic categories.
package classification

import "fmt"

// Classification codes as published by the validation service. These values
// are part of the protocol and must not change.
const (
	CodeNaturalPerson                      = 0
	CodeLegalEntity                        = 1
	CodePublicEmployee                     = 5
	CodeEntity                             = 6
	CodeQualifiedSeal                      = 8
	CodeAuthenticationOnly                 = 9
	CodeRepresentativeOfLegalEntityCertain = 11
	CodeRepresentativeOfLegalEntitySimple  = 12
)

// Category is the semantic kind of a certificate.
type Category int

const (
	Unknown Category = iota
	NaturalPerson
	LegalEntity
	PublicEmployee
	// Entity is an entity without legal personality.
	Entity
	QualifiedSeal
	AuthenticationOnly
	RepresentativeOfLegalEntityCertain
	RepresentativeOfLegalEntitySimple
)

var categories = map[int]Category{
	CodeNaturalPerson:                      NaturalPerson,
	CodeLegalEntity:                        LegalEntity,
	CodePublicEmployee:                     PublicEmployee,
	CodeEntity:                             Entity,
	CodeQualifiedSeal:                      QualifiedSeal,
	CodeAuthenticationOnly:                 AuthenticationOnly,
	CodeRepresentativeOfLegalEntityCertain: RepresentativeOfLegalEntityCertain,
	CodeRepresentativeOfLegalEntitySimple:  RepresentativeOfLegalEntitySimple,
}

// CategoryOf returns the category of a classification code, or Unknown.
func CategoryOf(code int) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return Unknown
}

// IsEntity reports whether code identifies a certificate issued to an
// organization rather than to a person.
func IsEntity(code int) bool {
	switch CategoryOf(code) {
	case LegalEntity, Entity, QualifiedSeal:
		return true
	}
	return false
}

// IsNaturalPerson reports whether code identifies a certificate held by a
// natural person, including employees and representatives acting for an
// entity.
func IsNaturalPerson(code int) bool {
	switch CategoryOf(code) {
	case NaturalPerson, PublicEmployee, AuthenticationOnly,
		RepresentativeOfLegalEntityCertain, RepresentativeOfLegalEntitySimple:
		return true
	}
	return false
}

func (c Category) String() string {
	switch c {
	case Unknown:
		return "unknown"
	case NaturalPerson:
		return "naturalPerson"
	case LegalEntity:
		return "legalEntity"
	case PublicEmployee:
		return "publicEmployee"
	case Entity:
		return "entity"
	case QualifiedSeal:
		return "qualifiedSeal"
	case AuthenticationOnly:
		return "authenticationOnly"
	case RepresentativeOfLegalEntityCertain:
		return "representativeOfLegalEntityCertain"
	case RepresentativeOfLegalEntitySimple:
		return "representativeOfLegalEntitySimple"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}
