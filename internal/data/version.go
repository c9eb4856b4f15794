package data

// populated at build time with -ldflags "-X"
var (
	Version   string
	GitCommit string
	GitBranch string
)
