package buildconfig

var (
	version = "snapshot"
	commit  = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }
