package identity

import (
	"fmt"
)

// VerificationRelationship names a capability grant linking a DID Document
// to specific verification methods.
type VerificationRelationship string

// Verification relationships defined by the DID core data model.
const (
	RelationshipAuthentication       VerificationRelationship = "authentication"
	RelationshipAssertionMethod      VerificationRelationship = "assertionMethod"
	RelationshipCapabilityInvocation VerificationRelationship = "capabilityInvocation"
	RelationshipCapabilityDelegation VerificationRelationship = "capabilityDelegation"
)

// VerificationMethod is a single public key entry in a DID Document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// Document is a resolved DID Document: the identifier, its verification
// methods, and the relationship arrays referencing them by id.
type Document struct {
	Context              []string             `json:"@context,omitempty"`
	ID                   string               `json:"id"`
	Controller           string               `json:"controller,omitempty"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	CapabilityInvocation []string             `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
}

// FindVerificationMethod returns the verification method with the given id,
// or nil if the document does not contain it.
func (d *Document) FindVerificationMethod(id string) *VerificationMethod {
	for i := range d.VerificationMethod {
		if d.VerificationMethod[i].ID == id {
			return &d.VerificationMethod[i]
		}
	}
	return nil
}

// Relationship returns the reference list for the named relationship.
func (d *Document) Relationship(rel VerificationRelationship) []string {
	switch rel {
	case RelationshipAuthentication:
		return d.Authentication
	case RelationshipAssertionMethod:
		return d.AssertionMethod
	case RelationshipCapabilityInvocation:
		return d.CapabilityInvocation
	case RelationshipCapabilityDelegation:
		return d.CapabilityDelegation
	default:
		return nil
	}
}

// HasRelationship reports whether the verification method id is referenced
// by the named relationship array.
func (d *Document) HasRelationship(rel VerificationRelationship, vmID string) bool {
	for _, ref := range d.Relationship(rel) {
		if ref == vmID {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the document: the id must be
// a well-formed DID and every reference held by a relationship array must
// resolve to an entry in verificationMethod. A dangling reference is a
// validation error, not a panic.
func (d *Document) Validate() error {
	if _, err := Parse(d.ID); err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	for i, vm := range d.VerificationMethod {
		if vm.ID == "" {
			return fmt.Errorf("verification method %d has empty id", i)
		}
		if vm.Type == "" {
			return fmt.Errorf("verification method %q has empty type", vm.ID)
		}
		if vm.PublicKeyMultibase == "" {
			return fmt.Errorf("verification method %q has empty publicKeyMultibase", vm.ID)
		}
	}

	rels := []VerificationRelationship{
		RelationshipAuthentication,
		RelationshipAssertionMethod,
		RelationshipCapabilityInvocation,
		RelationshipCapabilityDelegation,
	}
	for _, rel := range rels {
		for _, ref := range d.Relationship(rel) {
			if d.FindVerificationMethod(ref) == nil {
				return fmt.Errorf("%s references unknown verification method %q", rel, ref)
			}
		}
	}

	return nil
}
