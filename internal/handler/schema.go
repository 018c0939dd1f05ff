// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaBaseURL prefixes the $id of every request schema.
const SchemaBaseURL = "https://holoauth.dev/schemas/"

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	FirstName            string `json:"firstName" jsonschema:"minLength=1"`
	LastName             string `json:"lastName" jsonschema:"minLength=1"`
	Email                string `json:"email" jsonschema:"format=email"`
	Password             string `json:"password" jsonschema:"minLength=6"`
	PasswordConfirmation string `json:"passwordConfirmation" jsonschema:"minLength=1"`
}

// ForgotPasswordRequest is the body of POST /api/users/forgotpassword.
type ForgotPasswordRequest struct {
	Email string `json:"email" jsonschema:"format=email"`
}

// ResetPasswordRequest is the body of POST /api/users/resetpassword/:id/:code.
type ResetPasswordRequest struct {
	Password             string `json:"password" jsonschema:"minLength=6"`
	PasswordConfirmation string `json:"passwordConfirmation" jsonschema:"minLength=1"`
}

// requestTypes names every request body the router validates.
var requestTypes = map[string]any{
	"create-session":  &CreateSessionRequest{},
	"create-user":     &CreateUserRequest{},
	"forgot-password": &ForgotPasswordRequest{},
	"reset-password":  &ResetPasswordRequest{},
}

// GenerateSchema reflects the JSON Schema of a named request body.
func GenerateSchema(name string) ([]byte, error) {
	v, ok := requestTypes[name]
	if !ok {
		return nil, oops.Code("SCHEMA_UNKNOWN").With("schema", name).Errorf("unknown request schema")
	}

	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	schema := r.Reflect(v)
	schema.ID = jsonschema.ID(SchemaBaseURL + name + ".schema.json")

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_MARSHAL_FAILED").With("schema", name).Wrap(err)
	}
	return data, nil
}

// SchemaNames lists the request schemas GenerateSchema knows.
func SchemaNames() []string {
	return []string{"create-session", "create-user", "forgot-password", "reset-password"}
}

// validator holds the compiled request schemas.
type validator struct {
	schemas map[string]*jschema.Schema
}

func newValidator() (*validator, error) {
	c := jschema.NewCompiler()
	c.AssertFormat()

	for _, name := range SchemaNames() {
		data, err := GenerateSchema(name)
		if err != nil {
			return nil, err
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
		if err := c.AddResource(SchemaBaseURL+name+".schema.json", doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
	}

	v := &validator{schemas: make(map[string]*jschema.Schema, len(requestTypes))}
	for _, name := range SchemaNames() {
		sch, err := c.Compile(SchemaBaseURL + name + ".schema.json")
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
		v.schemas[name] = sch
	}
	return v, nil
}

// decode validates body against the named schema and unmarshals it into dst.
// The returned error carries a public message suitable for a 400 response.
func (v *validator) decode(name string, body []byte, dst any) error {
	sch, ok := v.schemas[name]
	if !ok {
		return oops.Code("SCHEMA_UNKNOWN").With("schema", name).Errorf("unknown request schema")
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return oops.Code("REQUEST_INVALID").
			Public("Invalid request body").
			Wrap(errInvalidRequest)
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("REQUEST_INVALID").
			With("schema", name).
			Public(formatSchemaError(err)).
			Wrap(errInvalidRequest)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return oops.Code("REQUEST_INVALID").
			Public("Invalid request body").
			Wrap(errInvalidRequest)
	}
	return nil
}

// formatSchemaError reduces a validation error to its innermost cause, e.g.
// "at '/email': 'x' is not valid email".
func formatSchemaError(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	msg := strings.TrimSpace(lines[len(lines)-1])
	msg = strings.TrimPrefix(msg, "- ")
	if msg == "" {
		return "Invalid request body"
	}
	return msg
}
