// Package update provides version checking and self-update functionality for waveorc.
//
// The package includes:
//   - Semantic version parsing and comparison (version.go)
//   - GitHub API client for fetching release info (check.go)
//   - Binary download with progress display (download.go)
//   - Binary installation with backup and rollback (install.go)
//
// CheckForUpdateAsync runs the release check in a goroutine so a caller need not
// block on it. Download, checksum verification, extraction and installation are
// separate steps (Downloader, VerifyChecksum, ExtractBinary, Installer); the package
// does not chain them into one flow, and no CLI command in this repository calls it
// (there is no update command, and the version command does not check for updates).
package update
