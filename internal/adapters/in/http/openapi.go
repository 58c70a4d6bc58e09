package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// ErrInvalidBody reports a request body that does not match the API schema.
var ErrInvalidBody = errors.New("request body does not match schema")

// Document is the parsed API description used to check request bodies.
type Document struct {
	raw []byte
	doc *openapi3.T
}

// LoadDocument parses and validates the embedded openapi.yaml.
func LoadDocument(ctx context.Context) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("openapi: loading document: %w", err)
	}
	if err = doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validating document: %w", err)
	}
	return &Document{raw: openAPIDocument, doc: doc}, nil
}

// ValidateBody checks body against the JSON request schema of the operation
// registered for method and path, where path uses the document's {param} syntax.
func (d *Document) ValidateBody(method, path string, body []byte) error {
	item := d.doc.Paths.Value(path)
	if item == nil {
		return fmt.Errorf("openapi: unknown path %s", path)
	}
	op := item.GetOperation(method)
	if op == nil {
		return fmt.Errorf("openapi: unknown operation %s %s", method, path)
	}
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}

	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if err := media.Schema.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

// Serve writes the raw document.
func (d *Document) Serve(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, "application/yaml", d.raw)
}
