package gitclone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmmtools/modgrab/internal/utils"
)

func TestParseGitURL(t *testing.T) {
	cases := []struct {
		url      string
		provider string
		owner    string
		repo     string
	}{
		{"https://github.com/owner/repo.git", "github.com", "owner", "repo"},
		{"https://github.com/owner/repo", "github.com", "owner", "repo"},
		{"gitlab.com/group/project.git", "gitlab.com", "group", "project"},
		{"https://bitbucket.org/team/thing/", "bitbucket.org", "team", "thing"},
	}
	for _, tc := range cases {
		provider, owner, repo, err := parseGitURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.provider, provider)
		assert.Equal(t, tc.owner, owner)
		assert.Equal(t, tc.repo, repo)
	}
}

func TestParseGitURLRejectsUnknownProvider(t *testing.T) {
	_, _, _, err := parseGitURL("https://example.com/owner/repo.git")
	assert.Error(t, err)

	_, _, _, err = parseGitURL("github.com/owner")
	assert.Error(t, err)
}

func TestValidateJobStoresMetadata(t *testing.T) {
	d := &GitCloneDownloader{}
	job := &utils.Job{
		URL:      "https://github.com/owner/repo.git",
		Metadata: make(map[string]any),
	}
	require.NoError(t, d.ValidateJob(job))
	assert.Equal(t, "github.com", job.Metadata["provider"])
	assert.Equal(t, "owner", job.Metadata["owner"])
	assert.Equal(t, "repo", job.Metadata["repo"])
}
