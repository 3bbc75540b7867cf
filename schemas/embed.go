// Package schemas holds the JSON Schemas of the documents the audit engine emits.
package schemas

import "embed"

// AuditReportFile is the schema of a serialized audit report.
const AuditReportFile = "audit_report.schema.json"

//go:embed *.schema.json
var files embed.FS

// Get returns the content of a schema file by name.
func Get(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the names of all embedded schema files.
func List() ([]string, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
