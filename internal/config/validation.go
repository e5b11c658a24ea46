package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goecs/internal/ident"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateEngine("engine", &c.Engine); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateWorld(); err != nil {
		errors = append(errors, err...)
	}

	for name, sys := range c.Systems {
		if err := c.validateSystem(name, &sys); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateEngine(prefix string, e *EngineConfig) ValidationErrors {
	var errors ValidationErrors

	if e.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".workers",
			Message: "workers cannot be negative",
		})
	}

	if e.ChunkSize < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".chunk_size",
			Message: "chunk_size cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateWorld() ValidationErrors {
	var errors ValidationErrors

	for i, name := range c.World.Components {
		if err := ident.Validate(name); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("world.components[%d]", i),
				Message: err.Error(),
			})
		}
	}

	for i, table := range c.World.Tables {
		prefix := fmt.Sprintf("world.tables[%d]", i)
		if len(table.Components) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".components",
				Message: "a table must declare at least one component",
			})
		}
		for j, name := range table.Components {
			if err := ident.Validate(name); err != nil {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.components[%d]", prefix, j),
					Message: err.Error(),
				})
			}
		}
		if table.Rows < 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".rows",
				Message: "rows cannot be negative",
			})
		}
	}

	return errors
}

func (c *Config) validateSystem(name string, sys *SystemConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("systems.%s", name)

	if err := ident.Validate(name); err != nil {
		errors = append(errors, ValidationError{
			Field:   prefix,
			Message: err.Error(),
		})
	}

	if strings.TrimSpace(sys.Signature) == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".signature",
			Message: "signature is required",
		})
	}

	validKinds := map[string]bool{"periodic": true, "on_demand": true, "on_init": true, "on_deinit": true, "": true}
	if !validKinds[sys.Kind] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".kind",
			Message: "kind must be 'periodic', 'on_demand', 'on_init', or 'on_deinit'",
		})
	}

	if sys.Engine != nil {
		if err := c.validateEngine(prefix+".engine", sys.Engine); err != nil {
			errors = append(errors, err...)
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
