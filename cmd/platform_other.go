//go:build !windows

package cmd

import (
	"fmt"
	"runtime"

	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
)

func newWorkflow(_ logger.LoggerInterface, _ *Config, _ *labels.Matcher) (*Workflow, error) {
	return nil, fmt.Errorf("pbirefresh only runs on Windows (running on %s)", runtime.GOOS)
}

func setupConsoleHandler(_ *ExecutionContext) {}

func logElevation(_ logger.LoggerInterface) {}
