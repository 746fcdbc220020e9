package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_makeVersionString(t *testing.T) {
	type args struct {
		version    string
		commitHash string
		os         string
		arch       string
		branch     string
	}
	tests := []struct {
		name     string
		args     args
		expected string
	}{
		{
			name:     "Unset version",
			args:     args{commitHash: "abc123", os: "linux"},
			expected: "development",
		},
		{
			name: "Typical Development",
			args: args{
				version:    "1.0.0",
				commitHash: "abc123",
				os:         "darwin",
				arch:       "amd64",
				branch:     "Branch1",
			},
			expected: "1.0.0(abc123)[Branch1]/darwin-amd64",
		},
		{
			name: "No commit hash",
			args: args{
				version: "1.0.0",
				os:      "linux",
				arch:    "arm64",
			},
			expected: "1.0.0/linux-arm64",
		},
		{
			name: "No os or arch",
			args: args{
				version:    "1.0.0",
				commitHash: "abc123",
				branch:     "Branch1",
			},
			expected: "1.0.0(abc123)[Branch1]",
		},
		{
			name: "OS only",
			args: args{
				version:    "1.0.0",
				commitHash: "abc123",
				os:         "linux",
			},
			expected: "1.0.0(abc123)/linux",
		},
		{
			name: "Branch Main",
			args: args{
				version:    "1.0.0",
				commitHash: "abc123",
				os:         "darwin",
				arch:       "amd64",
				branch:     "main",
			},
			expected: "1.0.0(abc123)/darwin-amd64",
		},
		{
			name: "Branch HEAD",
			args: args{
				version:    "1.0.0",
				commitHash: "abc123",
				os:         "darwin",
				arch:       "amd64",
				branch:     "HEAD",
			},
			expected: "1.0.0(abc123)/darwin-amd64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := makeVersionString(tt.args.version, tt.args.commitHash, tt.args.os, tt.args.arch, tt.args.branch)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUserAgent(t *testing.T) {
	defer func() {
		Version = ""
		CommitHash = ""
	}()

	assert.Equal(t, "orca/development", UserAgent())

	Version = "v1.2.0"
	CommitHash = "deadbeef"
	assert.Equal(t, "orca/v1.2.0(deadbeef)", UserAgent())
}
