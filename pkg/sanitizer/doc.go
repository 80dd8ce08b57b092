// Package sanitizer normalizes client-submitted contact data before
// validation and storage.
//
// All functions are idempotent and handle invalid input gracefully,
// returning empty strings rather than errors:
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Phone numbers: convert to E.164 format (+[country][number])
package sanitizer
