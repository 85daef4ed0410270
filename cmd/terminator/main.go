package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/terminatorcore/terminator/cfg"
	"github.com/terminatorcore/terminator/cfg/storage"
	"github.com/terminatorcore/terminator/credential"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/log/writer"
	"github.com/terminatorcore/terminator/rdb"
	"github.com/terminatorcore/terminator/refx"
	"github.com/terminatorcore/terminator/version"
)

// AppConfig 配置文件结构，所有字段都可以用 TERMINATOR_ 前缀的环境变量覆盖
type AppConfig struct {
	Log        log.Options        `cfg:"log"`
	Database   rdb.SQLOptions     `cfg:"database"`
	Credential credential.Options `cfg:"credential"`
	Gen        struct {
		Project   string `cfg:"project"`
		OutputDir string `cfg:"outputDir" def:"~/Documents"`
		Flat      bool   `cfg:"flat"`
	} `cfg:"gen"`
}

type rootFlags struct {
	config    string
	envPrefix string
	verbose   bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:          "terminator",
		Short:        "TerminatorCore - gorm code generator and helpers",
		Long:         version.Description,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file (json, yaml, toml or ini)")
	rootCmd.PersistentFlags().StringVar(&flags.envPrefix, "env-prefix", "TERMINATOR_", "environment variable prefix overriding config values")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newGenCommand(flags), newCredentialCommand(flags), newVersionCommand())
	return rootCmd
}

// loadConfig 读取配置文件并按配置初始化默认日志器，未指定文件时只使用默认值
func loadConfig(flags *rootFlags) (*AppConfig, error) {
	app := &AppConfig{}
	if flags.config == "" {
		if err := storage.NewMapStorage(map[string]any{}).ConvertTo(app); err != nil {
			return nil, err
		}
	} else {
		c, err := cfg.NewConfig(flags.config, flags.envPrefix)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to load config")
		}
		defer c.Close()
		if err := c.ConvertTo(app); err != nil {
			return nil, errors.WithMessagef(err, "invalid config %s", flags.config)
		}
	}

	if flags.verbose {
		app.Log.Level = "debug"
	}
	// stdout 留给 --print 等命令输出
	if app.Log.Output == nil {
		app.Log.Output = &refx.TypeOptions{
			Namespace: writer.Namespace,
			Type:      "ConsoleWriter",
			Options:   &writer.ConsoleWriterOptions{Target: "stderr"},
		}
	}
	l, err := log.NewLogWithOptions(&app.Log)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create logger")
	}
	log.SetDefault(l)
	return app, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.String())
		},
	}
}
