package version_test

import (
	"strings"
	"testing"

	"github.com/nexus-gateway/nexus/internal/version"
)

func TestStringIncludesCommitAndBuildDate(t *testing.T) {
	t.Parallel()

	got := version.String()
	if !strings.Contains(got, version.Version) {
		t.Errorf("String() = %q, want it to contain Version %q", got, version.Version)
	}
	if !strings.Contains(got, version.Commit) {
		t.Errorf("String() = %q, want it to contain Commit %q", got, version.Commit)
	}
	if !strings.Contains(got, version.BuildDate) {
		t.Errorf("String() = %q, want it to contain BuildDate %q", got, version.BuildDate)
	}
}
