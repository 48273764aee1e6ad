package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
)

// Flag/viper key names for the four CLI-bound settings in spec.md §6.
const (
	FlagCodexBin    = "codex-bin"
	FlagRounds      = "rounds"
	FlagSandbox     = "sandbox"
	FlagBypass      = "dangerously-bypass-approvals-and-sandbox"
	envCodexBin     = "CODEX_BIN"
	defaultCodexBin = "codex"
	defaultRounds   = 10
)

// CLIConfig is the resolved, validated set of the four launch-config CLI
// flags from spec.md §6.
type CLIConfig struct {
	CodexBin                  string
	Rounds                    int
	Sandbox                   backend.Sandbox
	BypassApprovalsAndSandbox bool
}

// RegisterFlags attaches the four CLI flags (plus the --yolo alias) to cmd,
// binding them through viper so CODEX_BIN and friends layer over defaults
// exactly as the teacher's cmd/root.go layers its own flags.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.String(FlagCodexBin, defaultCodexBin, "path or command of the Codex app-server binary")
	flags.Int(FlagRounds, defaultRounds, "maximum number of rounds to run (must be >= 1)")
	flags.String(FlagSandbox, "default", "sandbox mode: default|read-only|workspace-write|danger-full-access")
	flags.Bool(FlagBypass, false, "dangerously bypass approvals and sandboxing entirely")
	flags.BoolVar(new(bool), "yolo", false, "alias for --"+FlagBypass)

	_ = v.BindPFlag(FlagCodexBin, flags.Lookup(FlagCodexBin))
	_ = v.BindPFlag(FlagRounds, flags.Lookup(FlagRounds))
	_ = v.BindPFlag(FlagSandbox, flags.Lookup(FlagSandbox))
	_ = v.BindPFlag(FlagBypass, flags.Lookup(FlagBypass))
	_ = v.BindEnv(FlagCodexBin, envCodexBin)
}

// ResolveCLIConfig reads the bound viper values (applying the --yolo alias
// and validating --rounds >= 1) into a CLIConfig, matching main.rs's
// parse_cli rejection of a zero round count.
func ResolveCLIConfig(cmd *cobra.Command, v *viper.Viper) (CLIConfig, error) {
	yolo, _ := cmd.Flags().GetBool("yolo")

	rounds := v.GetInt(FlagRounds)
	if rounds < 1 {
		return CLIConfig{}, fmt.Errorf("config: --%s must be >= 1, got %d", FlagRounds, rounds)
	}

	sandbox, err := parseSandboxFlag(v.GetString(FlagSandbox))
	if err != nil {
		return CLIConfig{}, err
	}

	codexBin := strings.TrimSpace(v.GetString(FlagCodexBin))
	if codexBin == "" {
		codexBin = defaultCodexBin
	}

	return CLIConfig{
		CodexBin:                  codexBin,
		Rounds:                    rounds,
		Sandbox:                   sandbox,
		BypassApprovalsAndSandbox: yolo || v.GetBool(FlagBypass),
	}, nil
}

func parseSandboxFlag(raw string) (backend.Sandbox, error) {
	switch raw {
	case "", "default":
		return backend.SandboxDefault, nil
	case "read-only":
		return backend.SandboxReadOnly, nil
	case "workspace-write":
		return backend.SandboxWorkspaceWrite, nil
	case "danger-full-access":
		return backend.SandboxDangerFullAccess, nil
	default:
		return "", fmt.Errorf("config: invalid --%s value %q (want default|read-only|workspace-write|danger-full-access)", FlagSandbox, raw)
	}
}
