package version

import "fmt"

const developmentVersion = "development"

var (
	// Build time injected information
	Version    string
	CommitHash string
	BuildTime  string
	OS         string
	Arch       string
	Branch     string
)

// GetVersion returns the version information in a human consumable way. It is printed by `orca version` and
// embedded in the User-Agent of every request.
func GetVersion() string {
	return makeVersionString(Version, CommitHash, OS, Arch, Branch)
}

func UserAgent() string {
	return fmt.Sprintf("orca/%s", GetVersion())
}

func makeVersionString(version, commitHash, os, arch, branch string) string {
	if version == "" {
		return developmentVersion
	}
	versionString := version
	if commitHash != "" {
		versionString = fmt.Sprintf("%s(%s)", versionString, commitHash)
	}

	if branch != "" && branch != "main" && branch != "HEAD" {
		versionString = fmt.Sprintf("%s[%s]", versionString, branch)
	}

	switch {
	case os != "" && arch != "":
		versionString = fmt.Sprintf("%s/%s-%s", versionString, os, arch)
	case os != "":
		versionString = fmt.Sprintf("%s/%s", versionString, os)
	}
	return versionString
}
