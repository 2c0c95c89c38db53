package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/config"
)

const initContainerTimeout = 60 * time.Second

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "init [project-dir]",
		Short: "Initialize a new accredit project",
		Long: `Writes accredit.yaml and an example observation context. With
--provider redis a local Valkey container is started as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), args[0], providerName)
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "sqlite", "Storage provider: sqlite or redis")
	return cmd
}

const sqliteConfig = `provider: sqlite
sqlite:
  path: accredit.db
server:
  addr: ":3000"
ingest:
  studentIdLength: 8
  policy: best-effort
listing:
  flattenPolicy: drop
  defaultPageSize: 10
  maxPageSize: 100
`

const redisConfig = `provider: redis
redis:
  addr: localhost:6379
  keyPrefix: "accredit:"
server:
  addr: ":3000"
ingest:
  studentIdLength: 8
  policy: compensate
listing:
  flattenPolicy: drop
breaker:
  enabled: true
  failThreshold: 5
  cooldown: 30s
`

const exampleContext = `program: COMP
course: COMP3800
term: 202530
prog_term: 3
instr_first_name: Grace
instr_last_name: Hopper
ga: GA3
gai: "3.2"
instr_level: Developed
alignment: Strong
clos: CLO1, CLO3
assess_type: Midterm
assess_weight: 25
assess_max: 100
total_score: 80
question_max: 10
assess_title: Midterm 1
assess_descript: Written midterm, question 4
quest_text: Design an experiment to test the hypothesis
instr_comments: ""
`

func runInit(out io.Writer, dir, providerName string) error {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Initializing accredit project: %s\n", dir)

	var cfgContent string
	switch providerName {
	case "sqlite":
		cfgContent = sqliteConfig
	case "redis":
		cfgContent = redisConfig
	default:
		return fmt.Errorf("init supports sqlite or redis, got %q", providerName)
	}

	if err := os.MkdirAll(filepath.Join(dir, "contexts"), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(cfgContent), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	ctxPath := filepath.Join(dir, "contexts", "example.yaml")
	if err := os.WriteFile(ctxPath, []byte(exampleContext), 0o644); err != nil {
		return fmt.Errorf("writing example context: %w", err)
	}
	fmt.Fprintln(out, color.GreenString("  ✓ Project scaffolded"))

	if providerName == "redis" {
		if err := startValkey(); err != nil {
			fmt.Fprintln(out, color.YellowString("  ⚠ Valkey setup skipped: %v", err))
			fmt.Fprintln(out, color.YellowString("    Run manually: docker run -d --name accredit-valkey -p 6379:6379 valkey/valkey:8"))
		} else {
			fmt.Fprintln(out, color.GreenString("  ✓ Valkey container started"))
		}
	}

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  cd %s\n", dir)
	fmt.Fprintln(out, "  accredit ingest --file grades.xlsx --context contexts/example.yaml")
	fmt.Fprintln(out, "  accredit serve")
	return nil
}

func startValkey() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	// Reuse an existing container
	checkCmd := exec.Command("docker", "inspect", "accredit-valkey")
	if checkCmd.Run() == nil {
		startCmd := exec.Command("docker", "start", "accredit-valkey")
		if err := startCmd.Run(); err != nil {
			return fmt.Errorf("starting existing container: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initContainerTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "run", "-d",
		"--name", "accredit-valkey",
		"-p", "6379:6379",
		"valkey/valkey:8",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
