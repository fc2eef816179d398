// Package language holds the fixed table of the sixteen Formosan languages
// kari can transcribe.
//
// Each Profile pairs the recognition model identifier expected by the speech
// recognizer with the ethnonym the translation service resolves to its own
// source code. Lookup accepts any of the table's names, case-insensitively.
// The translation target is always Traditional Chinese (TargetCode).
package language
