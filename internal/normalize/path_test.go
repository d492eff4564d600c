package normalize

import "testing"

func TestRelativizePath(t *testing.T) {
	cases := []struct {
		name string
		path string
		root string
		want string
	}{
		{"under root", "/home/dev/repo/pkg/util/util.go", "/home/dev/repo", "pkg/util/util.go"},
		{"outside root", "/etc/hosts", "/home/dev/repo", "/etc/hosts"},
		{"empty root", "/home/dev/repo/main.go", "", "/home/dev/repo/main.go"},
		{"root without separator boundary", "/home/dev/repo-extra/main.go", "/home/dev/repo", "/home/dev/repo-extra/main.go"},
		{"path equals root", "/home/dev/repo", "/home/dev/repo", "/home/dev/repo"},
		{"empty path", "", "/home/dev/repo", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativizePath(tc.path, tc.root); got != tc.want {
				t.Fatalf("RelativizePath(%q, %q) = %q, want %q", tc.path, tc.root, got, tc.want)
			}
		})
	}
}
