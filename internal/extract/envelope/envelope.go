// Package envelope validates the outer structure of an extraction response
// against an embedded JSON Schema before it is decoded.
//
// The schema describes the union of every response shape the service has
// produced: the current and legacy `tables` arrays, the older
// `tables_by_text` map, the `fields` summary, and the `message` / `error`
// strings. Unknown top-level and per-table keys are allowed.
package envelope

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed envelope.schema.json
var schemaJSON []byte

const schemaURL = "envelope.schema.json"

var printer = message.NewPrinter(language.English)

var compile = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing envelope schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding envelope schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling envelope schema: %w", err)
	}
	return schema, nil
})

// Validate checks that raw is JSON matching one of the known response
// shapes. The returned error lists every violation found.
func Validate(raw []byte) error {
	schema, err := compile()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%s", strings.Join(violations(err), "; "))
	}
	return nil
}

// violations flattens a validation error into leaf messages.
func violations(err error) []string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if e.ErrorKind == nil {
				return
			}
			loc := "/" + strings.Join(e.InstanceLocation, "/")
			out = append(out, fmt.Sprintf("%s: %s", loc, e.ErrorKind.LocalizedString(printer)))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	if len(out) == 0 {
		return []string{verr.Error()}
	}
	return out
}
