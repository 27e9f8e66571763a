// Package repo provides Git synchronization and inspection operations for
// the botup CLI.
//
// All Git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the operator sees in their terminal,
//     including remotes, credential helpers, and merge configuration
//
// The Manager struct provides methods for pulling the checkout up to date
// and querying revision, branch, and local-change information.
package repo
