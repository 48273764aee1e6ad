// Package backend implements CodexPotter's JSON-RPC backend driver: it
// spawns one codex app-server child process, performs the initialize and
// thread/start handshake, forwards ops to the child, demultiplexes the
// child's message stream into UI events, auto-answers server approval
// requests, bounds-captures stderr, and shuts the child down on EOF or
// abort.
package backend

// ClientVersion is reported to the app server during initialize.
const ClientVersion = "0.1.0"

// Sandbox is the CLI-facing sandbox mode, passed through to the child
// process as an opaque enum value (see the CLI surface in the external
// interfaces). It has no policy meaning to the driver itself.
type Sandbox string

const (
	SandboxDefault          Sandbox = "default"
	SandboxReadOnly         Sandbox = "read-only"
	SandboxWorkspaceWrite   Sandbox = "workspace-write"
	SandboxDangerFullAccess Sandbox = "danger-full-access"
)

// wireValue renders the sandbox mode for the thread/start payload, where the
// enum is camelCase. "default" has no direct payload equivalent; it
// resolves to "workspaceWrite", matching the app server's own default when
// no sandbox preference is given.
func (s Sandbox) wireValue() string {
	switch s {
	case SandboxReadOnly:
		return "readOnly"
	case SandboxDangerFullAccess:
		return "dangerFullAccess"
	case SandboxWorkspaceWrite:
		return "workspaceWrite"
	default:
		return "workspaceWrite"
	}
}

// Config is the launch configuration for one round's app-server child.
type Config struct {
	// CodexBin is the path or command name of the codex binary.
	CodexBin string
	// WorkDir is the child process's working directory.
	WorkDir string
	// BypassApprovalsAndSandbox, when true, passes
	// --dangerously-bypass-approvals-and-sandbox to the child.
	BypassApprovalsAndSandbox bool
	// SandboxMode selects the --sandbox flag; SandboxDefault omits the flag
	// entirely and leaves the child's own default in effect.
	SandboxMode Sandbox
	// CodexHome, if set, is passed as thread/start's config.codexHome.
	CodexHome *string
	// DeveloperInstructions, if set, is passed as thread/start's
	// developerInstructions.
	DeveloperInstructions *string
}

func buildArgs(cfg Config) []string {
	var args []string
	if cfg.BypassApprovalsAndSandbox {
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	}
	if cfg.SandboxMode != "" && cfg.SandboxMode != SandboxDefault {
		args = append(args, "--sandbox", string(cfg.SandboxMode))
	}
	args = append(args, "app-server")
	return args
}
