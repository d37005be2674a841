package http

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce sync.Once
	specDoc  *openapi3.T
	specErr  error
)

// GetSwagger returns the parsed and validated OpenAPI document of the API.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		specDoc, specErr = loader.LoadFromData(rawSpec)
		if specErr != nil {
			return
		}
		specErr = specDoc.Validate(loader.Context)
	})
	return specDoc, specErr
}

// validateSchema checks a JSON document against a component schema.
func validateSchema(name string, body []byte) error {
	doc, err := GetSwagger()
	if err != nil {
		return fmt.Errorf("invalid embedded spec: %w", err)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %s not found", name)
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return ref.Value.VisitJSON(v)
}
