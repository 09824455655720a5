//go:build tools
// +build tools

// Package tools lists the development tools used on authweb.
// They are installed with `go install` and kept out of go.mod.
package tools

// Air rebuilds cmd/authweb on Go changes. With DEV=true templates and static
// files are read from disk, so markup edits need only a browser refresh.
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run:     DEV=true API_BASE_URL=http://localhost:3000 air --build.cmd "go build -o ./tmp/authweb ./cmd/authweb" --build.bin ./tmp/authweb
//
// mockgen regenerates internal/mocks from internal/ports (see internal/mocks/generate.go).
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
