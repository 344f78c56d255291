package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = SDSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// SDSemVer is the current version of supdem.
	// It's the Semantic Version of the software.
	SDSemVer = "0.1.0"

	// ProtocolVersion is bumped whenever the line protocol changes in a way
	// clients can observe: new commands, reply or notification texts.
	ProtocolVersion Protocol = 1
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}
