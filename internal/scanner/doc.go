// Package scanner extracts scholarly identifiers (DOIs) from page markup.
package scanner
