package gitclone

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/tmmtools/modgrab/internal/utils"
)

type cloneProgress struct {
	streamFunc func(string)
}

func (p *cloneProgress) Write(data []byte) (int, error) {
	message := strings.TrimSpace(string(data))
	if message != "" && p.streamFunc != nil {
		p.streamFunc(message)
	}
	return len(data), nil
}

func (d *GitCloneDownloader) Download(job *utils.Job) error {
	cloneURL := job.Metadata["cloneURL"].(string)
	depth, _ := job.Metadata["depth"].(int)

	auth, err := getAuthMethod(cloneURL, job.Metadata)
	if err != nil && job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf("Warning: %v", err))
	}

	cloneOptions := &git.CloneOptions{
		URL:      cloneURL,
		Progress: &cloneProgress{streamFunc: job.StreamFunc},
		Auth:     auth,
	}
	if depth > 0 {
		cloneOptions.Depth = depth
	}

	if job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf("Cloning %s", cloneURL))
	}
	if _, err := git.PlainClone(job.OutputPath, false, cloneOptions); err != nil {
		return fmt.Errorf("git clone failed: %v", err)
	}

	if size, err := getDirSize(job.OutputPath); err == nil && job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf("Clone complete - Total size: %s", utils.FormatBytes(uint64(size))))
	}
	return nil
}

func getAuthMethod(repoURL string, metadata map[string]any) (transport.AuthMethod, error) {
	token, _ := metadata["token"].(string)
	if token != "" {
		if strings.Contains(repoURL, "bitbucket.org") {
			return &githttp.BasicAuth{Username: "x-token-auth", Password: token}, nil
		}
		return &githttp.BasicAuth{Username: "oauth2", Password: token}, nil
	}
	if sshKeyPath, _ := metadata["sshKey"].(string); sshKeyPath != "" {
		publicKeys, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("couldn't load SSH key: %v", err)
		}
		return publicKeys, nil
	}
	return nil, errors.New("no authentication method found")
}

func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
