package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shelf-sh/shelf/tracker"
)

// config holds the resolved settings for one invocation.
type config struct {
	DBPath      string
	LogDir      string
	Verbose     bool
	RemoteURL   string
	MirrorDir   string
	ScanRoots   []string
	MaxFileSize int64
	AIModel     string
	AIAPIKey    string
}

var cfg config

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Track, sync, and restore configuration files",
	Long: `shelf keeps an authoritative record of the dotfiles you care about,
detects when they drift from their saved baselines, and syncs them with a
remote git repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Flags()); err != nil {
			return err
		}
		tracker.InitLogger(cfg.LogDir, cfg.Verbose)
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	addFlags(f)

	rootCmd.AddCommand(
		trackCmd, untrackCmd, listCmd, saveCmd, restoreCmd,
		suggestCmd, pushCmd, pullCmd, watchCmd,
		commitCmd, reviewCmd, versionCmd,
	)
}

func addFlags(f *pflag.FlagSet) {
	f.String("db", "", "database path (default: user config dir)")
	f.String("log-dir", "", "directory for rotated log files")
	f.BoolP("verbose", "v", false, "enable debug logging to the log dir")
	f.String("remote", "", "remote git URL for push/pull")
}

// loadConfig merges flags, SHELF_* env vars, and the optional config file
// at ~/.config/shelf/config.yaml, in that precedence order.
func loadConfig(flags *pflag.FlagSet) error {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix("shelf")
	v.AutomaticEnv()

	if dir := configDir(); dir != "" {
		v.SetConfigName("config")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetDefault("suggest.roots", []string{"~/.config"})
	v.SetDefault("suggest.max_file_size", 0)

	cfg = config{
		DBPath:      v.GetString("db"),
		LogDir:      v.GetString("log-dir"),
		Verbose:     v.GetBool("verbose"),
		RemoteURL:   v.GetString("remote"),
		MirrorDir:   v.GetString("remote.mirror_dir"),
		ScanRoots:   v.GetStringSlice("suggest.roots"),
		MaxFileSize: v.GetInt64("suggest.max_file_size"),
		AIModel:     v.GetString("ai.model"),
		AIAPIKey:    v.GetString("ai.api_key"),
	}
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = v.GetString("remote.url")
	}
	if cfg.MirrorDir == "" {
		if dir := configDir(); dir != "" {
			cfg.MirrorDir = filepath.Join(dir, "mirror")
		}
	}

	for i, root := range cfg.ScanRoots {
		expanded, err := homedir.Expand(root)
		if err == nil {
			cfg.ScanRoots[i] = expanded
		}
	}
	return nil
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "shelf")
}
