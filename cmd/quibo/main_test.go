package main

import (
	"reflect"
	"testing"
)

const pid = "3f0c2a9e-4b7d-4a43-9d0e-2c1b7f5e8a10"

func TestRewriteDirectProjectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"quibo"},
			want: []string{"quibo"},
		},
		{
			name: "project id first token",
			in:   []string{"quibo", pid},
			want: []string{"quibo", "projects", "show", pid},
		},
		{
			name: "project id after value flag",
			in:   []string{"quibo", "--dir", "./tmp-quibo", pid},
			want: []string{"quibo", "--dir", "./tmp-quibo", "projects", "show", pid},
		},
		{
			name: "project id after equals flag",
			in:   []string{"quibo", "--api-url=http://localhost:8000", pid},
			want: []string{"quibo", "--api-url=http://localhost:8000", "projects", "show", pid},
		},
		{
			name: "project id after bool flag",
			in:   []string{"quibo", "--pretty", pid},
			want: []string{"quibo", "--pretty", "projects", "show", pid},
		},
		{
			name: "project id after double dash",
			in:   []string{"quibo", "--format", "edn", "--", pid},
			want: []string{"quibo", "--format", "edn", "--", "projects", "show", pid},
		},
		{
			name: "value flag does not swallow the subcommand",
			in:   []string{"quibo", "--project", pid, "outline", "show"},
			want: []string{"quibo", "--project", pid, "outline", "show"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"quibo", "projects", "show", pid},
			want: []string{"quibo", "projects", "show", pid},
		},
		{
			name: "project name not rewritten",
			in:   []string{"quibo", "intro-to-go"},
			want: []string{"quibo", "intro-to-go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectProjectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
