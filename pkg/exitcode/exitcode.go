// Package exitcode provides standardized exit codes for autocheck
package exitcode

// Exit codes for autocheck CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ChecksFailed    = 3
	FileSystemError = 4
	SessionError    = 5
	Interrupted     = 130
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ChecksFailed:
		return "One or more assets failed to check"
	case FileSystemError:
		return "File system error"
	case SessionError:
		return "Session could not be restored"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
