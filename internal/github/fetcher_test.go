package github

import "testing"

func TestParseSourceURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    RepoRef
		wantErr bool
	}{
		{
			name: "bare repository",
			url:  "https://github.com/golang/go",
			want: RepoRef{Owner: "golang", Repo: "go"},
		},
		{
			name: "repository with .git suffix",
			url:  "https://github.com/golang/go.git",
			want: RepoRef{Owner: "golang", Repo: "go"},
		},
		{
			name: "trailing slash",
			url:  "https://github.com/golang/go/",
			want: RepoRef{Owner: "golang", Repo: "go"},
		},
		{
			name: "subtree with branch",
			url:  "https://github.com/huggingface/course/tree/main/chapters/en",
			want: RepoRef{Owner: "huggingface", Repo: "course", Ref: "main", BasePath: "chapters/en"},
		},
		{
			name: "branch without path",
			url:  "https://github.com/huggingface/course/tree/release",
			want: RepoRef{Owner: "huggingface", Repo: "course", Ref: "release"},
		},
		{
			name:    "not github",
			url:     "https://gitlab.com/owner/repo",
			wantErr: true,
		},
		{
			name:    "missing repo",
			url:     "https://github.com/owner",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSourceURL(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSourceURL(%q): %v", tc.url, err)
			}
			if got != tc.want {
				t.Errorf("ParseSourceURL(%q): expected %+v, got %+v", tc.url, tc.want, got)
			}
		})
	}
}
