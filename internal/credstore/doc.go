// Package credstore provides storage abstractions for OAuth credential documents.
//
// A credential document is an opaque byte slice (usually JSON) that is read from
// or written to one of three backends:
//   - File: Local filesystem storage written in a single call
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: Read-only environment variable access
//
// Stores never interpret the document. Parsing and mapping belong to the caller.
package credstore
