// Package harvest downloads the day's story clips into the scratch
// directory, naming each file by its capture timestamp so the merger can
// recover chronological order from a plain filename sort.
package harvest
