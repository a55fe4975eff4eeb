package pagetrans

import "runtime/debug"

const (
	// Name is the command and service name.
	Name = "pagetrans"

	// Description is the one-line summary shown by the CLI.
	Description = "Translate the visible text of HTML pages in place, with per-language caching"
)

// Release metadata, stamped at build time:
//
//	go build -ldflags "-X github.com/cybersafe-india/pagetrans.Version=1.2.0 \
//	    -X github.com/cybersafe-india/pagetrans.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

// FullVersion returns Version with the short commit appended when known
// ("0.1.0+3f2a9c1"). Without ldflags the VCS revision recorded by the Go
// toolchain is used.
func FullVersion() string {
	commit := GitCommit
	if commit == "" {
		commit = vcsRevision()
	}
	if commit == "" {
		return Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + "+" + commit
}

// UserAgent identifies outbound provider requests.
func UserAgent() string {
	return Name + "/" + FullVersion()
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
