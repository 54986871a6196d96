package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
)

// RepoRef identifies a repository subtree to pull markdown docs from.
type RepoRef struct {
	Owner    string
	Repo     string
	Ref      string // branch or tag, empty for the default branch
	BasePath string // subtree to scan, empty for the repository root
}

// ParseSourceURL extracts the repository coordinates from a GitHub source
// URL. Accepted forms:
//
//	https://github.com/owner/repo
//	https://github.com/owner/repo/tree/branch/path/to/docs
func ParseSourceURL(rawURL string) (RepoRef, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RepoRef{}, fmt.Errorf("parse source URL: %w", err)
	}
	if u.Host != "github.com" {
		return RepoRef{}, fmt.Errorf("not a github.com URL: %s", rawURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("URL missing owner/repo: %s", rawURL)
	}

	ref := RepoRef{
		Owner: parts[0],
		Repo:  strings.TrimSuffix(parts[1], ".git"),
	}
	if len(parts) >= 4 && parts[2] == "tree" {
		ref.Ref = parts[3]
		ref.BasePath = path.Join(parts[4:]...)
	}
	return ref, nil
}

// FetchedDoc is one markdown document pulled from a repository.
type FetchedDoc struct {
	Path    string // path relative to the scanned subtree
	Content string // full markdown content
	URL     string // raw.githubusercontent.com URL
}

// Fetcher fetches markdown documents from one repository subtree.
type Fetcher struct {
	client *Client
	ref    RepoRef
}

// NewFetcher creates a fetcher for the given repository subtree.
func NewFetcher(client *Client, ref RepoRef) *Fetcher {
	return &Fetcher{client: client, ref: ref}
}

// ListDocs recursively lists all markdown files under the subtree, paths
// relative to it.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocsRecursive(ctx, f.ref.BasePath, "")
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(
		ctx,
		f.ref.Owner,
		f.ref.Repo,
		fullPath,
		f.contentOpts(),
	)
	if err != nil {
		return nil, fmt.Errorf("list contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)
		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				docs = append(docs, itemRelPath)
			}
		case "dir":
			subDocs, err := f.listDocsRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// FetchDoc fetches one markdown file by its subtree-relative path.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*FetchedDoc, error) {
	fullPath := path.Join(f.ref.BasePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(
		ctx,
		f.ref.Owner,
		f.ref.Repo,
		fullPath,
		f.contentOpts(),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fullPath, err)
	}

	branch := f.ref.Ref
	if branch == "" {
		branch = "main"
	}
	rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		f.ref.Owner, f.ref.Repo, branch, fullPath)

	return &FetchedDoc{
		Path:    relativePath,
		Content: string(content),
		URL:     rawURL,
	}, nil
}

// LatestCommitTime returns when the subtree was last touched, for use as
// the published date of its documents.
func (f *Fetcher) LatestCommitTime(ctx context.Context) (time.Time, error) {
	opts := &github.CommitsListOptions{
		Path:        f.ref.BasePath,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	if f.ref.Ref != "" {
		opts.SHA = f.ref.Ref
	}

	commits, _, err := f.client.Repositories.ListCommits(ctx, f.ref.Owner, f.ref.Repo, opts)
	if err != nil {
		return time.Time{}, fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 {
		return time.Time{}, fmt.Errorf("no commits found for path %s", f.ref.BasePath)
	}

	date := commits[0].GetCommit().GetCommitter().GetDate()
	if date.IsZero() {
		return time.Time{}, fmt.Errorf("latest commit has no date")
	}
	return date.Time, nil
}

func (f *Fetcher) contentOpts() *github.RepositoryContentGetOptions {
	if f.ref.Ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref.Ref}
}
