//go:build mage

// Package main provides build targets for the profiles project using Mage.
//
// Usage:
//
//	mage build     Compile the profiles binary to bin/
//	mage test      Run all tests with the race detector
//	mage cover     Run tests and write coverage.out
//	mage lint      Run golangci-lint
//	mage clean     Remove build artifacts
//	mage install   Install profiles to GOPATH/bin
package main

import (
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test runs every package's tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs the tests and prints per-function coverage.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}
