package constants

// Control-file layout under the project root.
const (
	// ControlDir holds every file hookbak writes inside a project.
	ControlDir = ".hookbak"

	// QueueFileName is the default pending-change queue.
	QueueFileName = "queue.json"

	// LogFileName is the default append-only diagnostic log.
	LogFileName = "hookbak.log"

	// ConfigFileName is the optional per-project configuration file.
	ConfigFileName = "config.yaml"

	// QueueLockSuffix names the lock guarding queue read-modify-write cycles.
	QueueLockSuffix = ".lock"

	// FlushLockSuffix names the lock that keeps flushes single-flight.
	FlushLockSuffix = ".flush.lock"
)

// Commit attribution.
const (
	// CommitHeaderFormat is the first line of every checkpoint commit.
	// The verb receives the number of queued entries.
	CommitHeaderFormat = "hookbak: checkpoint of %d agent edit(s)"

	// FilesHeading introduces the list of queued base names.
	FilesHeading = "Files:"

	// NotStagedMarker is appended to entries that could not be staged.
	NotStagedMarker = " (not staged)"

	// TrailerKey and TrailerValue form the machine-readable trailer.
	TrailerKey   = "Change-Source"
	TrailerValue = "hookbak"
)

// Environment variables.
const (
	// EnvPrefix prefixes every configuration variable (HOOKBAK_DEBUG, ...).
	EnvPrefix = "HOOKBAK"

	// EnvHostProjectDir is set by the agent host for hook processes.
	EnvHostProjectDir = "CLAUDE_PROJECT_DIR"
)

// Trailer returns the full trailer line.
func Trailer() string {
	return TrailerKey + ": " + TrailerValue
}
