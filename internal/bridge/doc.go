// Package bridge copies Claude CLI OAuth credentials into the credentials.json
// layout consumed by the GitHub Claude workflow.
//
// A Pipeline runs five steps strictly in order and stops at the first failure:
//
//	CheckToolInstalled → CheckSourceExists → InvokeRefresh → ReadSource → TransformAndWrite
//
// Every step reports a boolean. Failure details are only visible in the log
// output, tagged with a FailureKind attribute.
//
// # Known gaps
//
// Some leniency is kept on purpose for compatibility with existing users:
//   - The Claude CLI is detected by the existence of a marker file only, so
//     installs that rely on a shell alias are not found.
//   - The refresh step only fails when the command cannot be started. A non-zero
//     exit status or a timeout still counts as success.
//   - The source record is not validated. Missing fields become zero values in
//     the output.
//   - The output is written in one call without temp file + rename.
//
// # Usage
//
//	p, err := bridge.New(bridge.Paths{
//		ToolMarker:        "/home/me/.claude/local/claude",
//		SourceCredentials: "/home/me/.claude/.credentials.json",
//		Output:            "credentials.json",
//	})
//	if err != nil {
//		return err
//	}
//	ok := p.Run(ctx)
package bridge
