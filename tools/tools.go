//go:build tools

// Package tools pins the task runner and linter used by Taskfile.yml.
package tools

import (
	_ "github.com/go-task/task/v3/cmd/task"
	_ "github.com/golangci/golangci-lint/v2/cmd/golangci-lint"
)
