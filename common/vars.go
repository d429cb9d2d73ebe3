package common

// Version is set at build time with -ldflags "-X github.com/ruteri/lawsign-backend/common.Version=..."
var Version = "dev"

// PackageName is used as the metrics namespace and the default log service tag.
const PackageName = "lawsign"
