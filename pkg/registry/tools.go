package registry

import "strings"

// Tool describes how to drive a registry's publish CLI.
type Tool struct {
	DryRun           []string
	Publish          []string
	TokenEnv         string
	AlreadyPublished []string
}

var BuiltinTools = map[string]Tool{
	"cargo": {
		DryRun:   []string{"cargo", "publish", "--dry-run"},
		Publish:  []string{"cargo", "publish"},
		TokenEnv: "CARGO_REGISTRY_TOKEN",
		AlreadyPublished: []string{
			"is already uploaded",
			"already exists on crates.io index",
			"already exists",
		},
	},
	"npm": {
		DryRun:   []string{"npm", "publish", "--dry-run"},
		Publish:  []string{"npm", "publish"},
		TokenEnv: "NODE_AUTH_TOKEN",
		AlreadyPublished: []string{
			"cannot publish over the previously published versions",
			"EPUBLISHCONFLICT",
		},
	},
}

var networkPatterns = []string{
	"could not resolve host",
	"couldn't resolve host",
	"connection refused",
	"connection reset",
	"network is unreachable",
	"operation timed out",
	"spurious network error",
	"etimedout",
	"econnreset",
	"enotfound",
	"eai_again",
	"502 bad gateway",
	"503 service unavailable",
	"504 gateway timeout",
}

func containsAny(output string, patterns []string) bool {
	lower := strings.ToLower(output)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
