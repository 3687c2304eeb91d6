package sideeffect

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of Request, published so collaborators can
// validate the payloads they receive.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	return reflector.Reflect(&Request{})
}
