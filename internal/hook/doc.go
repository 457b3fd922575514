// Package hook adapts hookbak to the agent host's hook protocol.
//
// The host starts one process per event and writes a single JSON object to
// its stdin. ReadInput decodes that object and Input.FilePath picks the
// edited path out of it; a missing path or malformed input means there is
// nothing to record. Input.ProjectPath resolves a relative path against the
// event's cwd, then NormalizePath stores it relative to the project root so
// queue entries read the same as git's own paths.
//
// The SessionStart entry point prints exactly one ContextOutput object to
// stdout. Nothing else may reach stdout from a hook.
package hook
