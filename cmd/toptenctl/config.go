package main

import (
	"errors"
	"fmt"
	"strings"

	"top-ten/internal/config"
	"top-ten/internal/db"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type Config struct {
	databaseURL   string
	migrationsDir string
}

func (c *Config) validate() error {
	if c.databaseURL == "" {
		return errors.New("--database-url or DATABASE_URL must be set")
	}
	return nil
}

func (c *Config) open() (*gorm.DB, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return db.Connect(c.databaseURL, config.Load())
}

func newRootCmd() *cobra.Command {
	cfg := &Config{}
	v := viper.New()
	v.SetEnvPrefix("TOPTEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "toptenctl",
		Short:         "Operator tools for the top-ten server: schema migrations and list scraping.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			bindFlags(cmd.Flags(), v)
			return nil
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(normalizeFlag)
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string (env: TOPTEN_DATABASE_URL, DATABASE_URL)")
	fs.StringVar(&cfg.migrationsDir, "migrations", "db/migrations", "directory holding the SQL migrations (env: TOPTEN_MIGRATIONS)")

	cmd.AddCommand(newMigrateCmd(cfg), newScrapeCmd(cfg))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("toptenctl v{{.Version}}\n")
	return cmd
}

// envAliases lists environment variables shared with the server that a flag
// also reads.
var envAliases = map[string][]string{
	"database-url": {"DATABASE_URL"},
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// bindFlags fills every flag the user did not pass from its environment
// variable.
func bindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if aliases, ok := envAliases[f.Name]; ok {
			env := "TOPTEN_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			_ = v.BindEnv(append([]string{f.Name, env}, aliases...)...)
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
