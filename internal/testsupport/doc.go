// Package testsupport provides shared fixtures for payflow tests: a config
// builder with per-test temp directories, an in-memory tabular backend with
// fault injection, and a recording announcer.
package testsupport
