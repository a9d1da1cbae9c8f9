// Package output renders CLI results as a table, JSON or YAML.
//
// Table output is for people: map keys are sorted, JSON values are shown
// compact on one line, and types can supply their own layout by
// implementing Tabler. JSON and YAML output are for scripts and keep the
// data's own shape.
package output
