package logbook

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

//go:embed schema/entry.json
var entrySchemaJSON []byte

//go:embed schema/log.json
var logSchemaJSON []byte

var (
	schemaOnce  sync.Once
	schemaErr   error
	entrySchema *jsonschema.Schema
	logSchema   *jsonschema.Schema
)

// loadSchemas compiles the embedded schema documents on first use. The
// compiled schemas are cached for the lifetime of the process.
func loadSchemas() error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat()

		entryDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(entrySchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse entry schema: %w", err)
			return
		}
		logDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(logSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse log schema: %w", err)
			return
		}
		if err := compiler.AddResource("entry.json", entryDoc); err != nil {
			schemaErr = fmt.Errorf("register entry schema: %w", err)
			return
		}
		if err := compiler.AddResource("log.json", logDoc); err != nil {
			schemaErr = fmt.Errorf("register log schema: %w", err)
			return
		}
		if entrySchema, err = compiler.Compile("entry.json"); err != nil {
			schemaErr = fmt.Errorf("compile entry schema: %w", err)
			return
		}
		if logSchema, err = compiler.Compile("log.json"); err != nil {
			schemaErr = fmt.Errorf("compile log schema: %w", err)
			return
		}
	})
	return schemaErr
}

// validateEntry checks a single entry against the entry schema.
func validateEntry(entry model.Entry) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	doc, err := toJSONDocument(entry)
	if err != nil {
		return err
	}
	if err := entrySchema.Validate(doc); err != nil {
		return &ValidationError{Cause: err}
	}
	return nil
}

// validateLog checks a full entry list against the log schema and the
// unique-datetime invariant.
func validateLog(entries []model.Entry) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	doc, err := toJSONDocument(entries)
	if err != nil {
		return err
	}
	if err := logSchema.Validate(doc); err != nil {
		return &ValidationError{Cause: err}
	}
	seen := make(map[int64]string, len(entries))
	for _, e := range entries {
		key := e.Datetime.UnixNano()
		if prev, dup := seen[key]; dup {
			return &ValidationError{Cause: fmt.Errorf("duplicate entry datetime %s", prev)}
		}
		seen[key] = e.Datetime.UTC().Format("2006-01-02T15:04:05.999Z07:00")
	}
	return nil
}

// toJSONDocument round-trips a value through its JSON encoding into the
// representation the validator expects (numbers as json.Number).
func toJSONDocument(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for validation: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
