package vdr

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wow-sven/nuwa-sub012/identity"
)

// documentSchema is the structural contract every resolved DID Document
// must satisfy before the registry hands it to verification code.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "verificationMethod"],
  "properties": {
    "id": {"type": "string", "pattern": "^did:[a-z0-9]+:.+"},
    "controller": {"type": "string"},
    "verificationMethod": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "controller", "publicKeyMultibase"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "controller": {"type": "string", "minLength": 1},
          "publicKeyMultibase": {"type": "string", "minLength": 2}
        }
      }
    },
    "authentication": {"type": "array", "items": {"type": "string"}},
    "assertionMethod": {"type": "array", "items": {"type": "string"}},
    "capabilityInvocation": {"type": "array", "items": {"type": "string"}},
    "capabilityDelegation": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledDocumentSchema = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks a resolved document against the JSON schema and
// the referential invariants (every relationship reference must resolve to
// a verification method).
func validateDocument(doc *identity.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document for validation: %w", err)
	}

	result, err := gojsonschema.Validate(compiledDocumentSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("document schema validation failed: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("document %s violates schema: %s", doc.ID, errs[0])
		}
		return fmt.Errorf("document %s violates schema", doc.ID)
	}

	return doc.Validate()
}
