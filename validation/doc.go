// Package validation validates configuration structs with
// go-playground/validator struct tags and reports every failing field
// using its mapstructure key, so messages match the YAML the user wrote.
package validation
