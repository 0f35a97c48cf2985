package version

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"testing"
)

// stubGit makes git print the output registered for its first flag, or fail
// when none is registered. It returns the argument lists git was run with.
func stubGit(t *testing.T, outputs map[string]string) *[]string {
	t.Helper()

	origExec, origVersion, origCommit, origDate := execCommand, Version, Commit, Date
	t.Cleanup(func() {
		execCommand = origExec
		Version, Commit, Date = origVersion, origCommit, origDate
		once = sync.Once{}
	})

	var calls []string
	execCommand = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		calls = append(calls, strings.Join(args, " "))
		if out, ok := outputs[args[1]]; ok {
			return exec.CommandContext(ctx, "echo", out)
		}
		return exec.CommandContext(ctx, "false")
	}
	once = sync.Once{}
	return &calls
}

func TestInfo_Ldflags(t *testing.T) {
	calls := stubGit(t, nil)
	Version, Commit, Date = "2.1.0", "abc1234", "2024-06-01"

	info := Info()
	if !strings.HasPrefix(info, Name+" 2.1.0 (commit: abc1234, built: 2024-06-01") {
		t.Errorf("Info() = %q", info)
	}
	if len(*calls) != 0 {
		t.Errorf("git should not run when ldflags are set, ran %v", *calls)
	}
}

func TestInfo_FromGit(t *testing.T) {
	tests := []struct {
		name        string
		outputs     map[string]string
		wantVersion string
		wantCommit  string
	}{
		{"Tagged", map[string]string{"--tags": "v1.0.0", "--always": "9f8e7d6-dirty"}, "1.0.0", "9f8e7d6-dirty"},
		{"NoTags", map[string]string{"--always": "9f8e7d6"}, "dev", "9f8e7d6"},
		{"NoRepository", nil, "dev", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubGit(t, tt.outputs)
			Version, Commit, Date = "", "", ""

			if got := GetVersion(); got != tt.wantVersion {
				t.Errorf("GetVersion() = %q, want %q", got, tt.wantVersion)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %q, want %q", got, tt.wantCommit)
			}
			if len(GetDate()) != len("2006-01-02") {
				t.Errorf("GetDate() = %q, want today's date", GetDate())
			}
			if !strings.HasPrefix(Info(), Name+" "+tt.wantVersion+" ") {
				t.Errorf("Info() = %q", Info())
			}
		})
	}
}
