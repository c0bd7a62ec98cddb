// Package fhirtext converts generic FHIR resources into flat, human-readable
// text suitable for embedding in a retrieval prompt. Resources are treated as
// read-only tagged unions keyed by resourceType; only Patient, Condition,
// Observation and Procedure are interpreted, everything else is skipped.
package fhirtext

import (
	"fmt"
	"strconv"
	"strings"
)

// NoContext is returned when no resource produced any summary line.
const NoContext = "No patient context available"

// Summarize renders one line per recognized resource (two for Patient),
// joined by newlines. Malformed records never error; missing fields resolve
// to empty strings or the documented defaults.
func Summarize(resources []map[string]interface{}) string {
	var lines []string

	for _, res := range resources {
		resourceType, _ := res["resourceType"].(string)

		switch resourceType {
		case "Patient":
			name := firstMap(res["name"])
			given := firstString(name["given"])
			family, _ := name["family"].(string)
			gender := stringOr(res["gender"], "unknown")
			birthDate := stringOr(res["birthDate"], "unknown")

			lines = append(lines, fmt.Sprintf("Patient: %s %s", given, family))
			lines = append(lines, fmt.Sprintf("Gender: %s, Birth Date: %s", gender, birthDate))

		case "Condition":
			lines = append(lines, "Condition: "+codeText(res, "Unknown condition"))

		case "Observation":
			// Lines are only emitted for observations carrying a value;
			// a missing valueQuantity omits the line entirely.
			quantity, ok := res["valueQuantity"].(map[string]interface{})
			if !ok || len(quantity) == 0 {
				continue
			}
			value := scalarString(quantity["value"])
			unit := stringOr(quantity["unit"], "")
			lines = append(lines, fmt.Sprintf("Observation: %s = %s %s", codeText(res, "Unknown observation"), value, unit))

		case "Procedure":
			lines = append(lines, "Procedure: "+codeText(res, "Unknown procedure"))
		}
	}

	if len(lines) == 0 {
		return NoContext
	}
	return strings.Join(lines, "\n")
}

// codeText resolves a resource's display text: code.text, then
// code.coding[0].display, then the given default.
func codeText(res map[string]interface{}, fallback string) string {
	code, _ := res["code"].(map[string]interface{})
	if text, ok := code["text"].(string); ok && text != "" {
		return text
	}
	coding := firstMap(code["coding"])
	if display, ok := coding["display"].(string); ok && display != "" {
		return display
	}
	return fallback
}

// firstMap returns the first element of a JSON array of objects, or an empty
// map when the value is absent, not an array, or empty.
func firstMap(v interface{}) map[string]interface{} {
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return map[string]interface{}{}
	}
	m, ok := arr[0].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}

// firstString returns the first element of a JSON array of strings, or "".
func firstString(v interface{}) string {
	arr, ok := v.([]interface{})
	if !ok || len(arr) == 0 {
		return ""
	}
	s, _ := arr[0].(string)
	return s
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// scalarString formats a JSON scalar for inclusion in a summary line.
// Numbers print without an exponent or trailing zeros.
func scalarString(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", n)
	}
}
