package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quibo-cli/internal/cli"

	"github.com/google/uuid"
)

func isProjectID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// rewriteDirectProjectLookupArgs turns `quibo <project-id>` into
// `quibo projects show <project-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags often come first
// (`quibo --dir ... <project-id>`), so the first positional token is located
// rather than assumed to be argv[1].
func rewriteDirectProjectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so a project id is never
	// consumed as one.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--api-url":   true,
		"--api-key":   true,
		"--format":    true,
		"--project":   true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty":  true,
		"--offline": true,
	}

	rewrite := func(at int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:at]...)
		out = append(out, "projects", "show")
		out = append(out, argv[at:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isProjectID(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="), boolFlags[a]:
			case valueFlags[a]:
				i++
			}
			continue
		}

		if isProjectID(a) {
			return rewrite(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectProjectLookupArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
