// Package flags defines the urfave/cli flag set shared by the
// gitlfs CLI's subcommands, grounded on utils/flags/flags.go's
// GetCliFlags shape (one cli.Flag per setting, env var fallback on
// each).
package flags

import (
	"github.com/urfave/cli/v2"
)

// GetCliFlags returns the cli.Flag set this module's commands accept.
func GetCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config_file",
			Value:   "",
			Usage:   "Path to a YAML configuration file. If this flag is specified then all other flags are ignored.",
			EnvVars: []string{"GITLFS_CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Value:   "",
			Usage:   "Directory path of the local object store. This flag is required.",
			EnvVars: []string{"GITLFS_DIR"},
		},
		&cli.StringFlag{
			Name:    "track_extensions",
			Value:   "",
			Usage:   "Comma-separated list of file extensions (e.g. \".psd,.zip\") to track with LFS. If set, takes priority over track_max_size.",
			EnvVars: []string{"GITLFS_TRACK_EXTENSIONS"},
		},
		&cli.Int64Flag{
			Name:        "track_max_size",
			Value:       0,
			Usage:       "Track any file at or under this byte size. Only used when track_extensions is empty. 0 disables the size-based rule.",
			DefaultText: "0, ie disabled",
			EnvVars:     []string{"GITLFS_TRACK_MAX_SIZE"},
		},
		&cli.StringFlag{
			Name:    "remote_url",
			Value:   "",
			Usage:   "The origin repository URL to derive the LFS batch endpoint from. This flag is required.",
			EnvVars: []string{"GITLFS_REMOTE_URL"},
		},
		&cli.StringFlag{
			Name:    "access_token",
			Value:   "",
			Usage:   "Bearer token sent as HTTP Basic auth credentials on batch and verify requests.",
			EnvVars: []string{"GITLFS_ACCESS_TOKEN"},
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Usage:   "An extra \"Key: Value\" HTTP header to send on batch and verify requests. May be repeated.",
			EnvVars: []string{"GITLFS_HEADER"},
		},
		&cli.IntFlag{
			Name:    "concurrency_limit",
			Value:   8,
			Usage:   "The maximum number of concurrent object transfers during pull/push.",
			EnvVars: []string{"GITLFS_CONCURRENCY_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "user_agent",
			Value:   "lfscore",
			Usage:   "The User-Agent header sent on remote requests.",
			EnvVars: []string{"GITLFS_USER_AGENT"},
		},
		&cli.StringFlag{
			Name:        "access_log_level",
			Value:       "all",
			Usage:       "The access logger verbosity level. Must be one of \"none\" or \"all\".",
			DefaultText: "all, ie enable full access logging",
			EnvVars:     []string{"GITLFS_ACCESS_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:        "metrics_address",
			Value:       "",
			Usage:       "If set, serve Prometheus metrics on this address (e.g. \"127.0.0.1:9100\") while the command runs.",
			DefaultText: "\"\", ie metrics disabled",
			EnvVars:     []string{"GITLFS_METRICS_ADDRESS"},
		},
	}
}
