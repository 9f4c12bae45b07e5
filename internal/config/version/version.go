package version

// Package metadata information, used for versioning and lock manifest
// generation. CI replaces these variables during the release build.
var (
	Version      = "0.1.0"            // Version of the Environment Composer
	Toolname     = "Env-Composer-dev" // Name of the tool
	Organization = "unknown"          // Organization that built the tool
	BuildDate    = "unknown"          // Date when the tool was built
	CommitSHA    = "unknown"          // Commit SHA of the tool
)
