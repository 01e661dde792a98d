package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/service/chaincheck"
)

func useMemoryStore(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Chdir(t.TempDir())
}

func TestRun_ExitCodes(t *testing.T) {
	useMemoryStore(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"empty store is healthy", []string{"-no-color"}, exitOK},
		{"single partition", []string{"-no-color", "-entity-id=order-1"}, exitOK},
		{"unknown flag", []string{"-bogus"}, exitError},
		{"bad entity type", []string{"-entity-id=order-1", "-entity-type=Nope"}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}

func TestRun_BadConfigIsAnError(t *testing.T) {
	useMemoryStore(t)
	t.Setenv("DATABASE_DRIVER", "oracle")

	assert.Equal(t, exitError, run(nil))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitOK, exitCode(chaincheck.Report{Partitions: 2, Records: 5}))
	broken := chaincheck.Report{
		Partitions: 1,
		Findings: []chaincheck.Finding{
			{Partition: domain.PartitionKey{EntityID: "x"}, Kind: chaincheck.KindNoBaseline},
		},
	}
	assert.Equal(t, exitFindings, exitCode(broken))
}
