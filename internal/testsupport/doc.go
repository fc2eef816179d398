// Package testsupport provides shared fixtures for package tests: isolated
// configs rooted in t.TempDir, an opened sqlite corpus and small file helpers.
package testsupport
