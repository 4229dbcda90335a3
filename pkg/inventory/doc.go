// Package inventory composes the installer's inventory document.
//
// The document carries plaintext passwords, so it only ever exists as a
// private temporary file for the duration of one installer run: see
// Composer.WithTransient.
package inventory
