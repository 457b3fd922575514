// Package constants provides application-wide constant values for hookbak.
//
// It centralizes the control-file layout under a project root, the commit
// attribution text and the environment variable names, so the queue, the
// flush coordinator and the CLI agree on them.
//
// # Usage
//
//	queuePath := filepath.Join(root, constants.ControlDir, constants.QueueFileName)
//	header := fmt.Sprintf(constants.CommitHeaderFormat, 3)
package constants
