package version

import (
	"fmt"
	"runtime"
)

// Version is the release version of dashsim.
// Note: will be replaced by goreleaser
var Version = "0.1.0-DEV"

// GitCommit is the git commit the binary was built from.
// Note: will be replaced by goreleaser
var GitCommit string

// BuildDate is the date the binary was built.
// Note: will be replaced by goreleaser
var BuildDate = ""

// SchemaVersion is the version of the session store schema written by this build.
// Stores with the same major version and a lower or equal minor version can be read.
const SchemaVersion = "v1.0.0"

// FullVersion can be used for more detailed version info
var FullVersion = fmt.Sprintf("%s Build %s (Commit %s) Go %s [%s %s] Schema %s",
	Version, BuildDate, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH, SchemaVersion)
