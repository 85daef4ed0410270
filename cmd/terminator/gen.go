package main

import (
	"github.com/spf13/cobra"
	"github.com/terminatorcore/terminator/codegen"
	"github.com/terminatorcore/terminator/log"
)

type genFlags struct {
	table    string
	project  string
	out      string
	flat     bool
	print    bool
	driver   string
	dsn      string
	host     string
	port     string
	user     string
	password string
	database string
}

func newGenCommand(root *rootFlags) *cobra.Command {
	flags := &genFlags{}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate model, service and expose code from a database table",
		Example: `  terminator gen --table track_type --project example.com/demo --database demo --user root
  terminator gen -c terminator.yaml --table track_type --print`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadConfig(root)
			if err != nil {
				return err
			}
			options := genOptions(cmd, app, flags)

			g, err := codegen.NewGeneratorWithOptions(options)
			if err != nil {
				return err
			}
			defer g.Close()
			g.SetOutput(cmd.OutOrStdout())
			g.SetLogger(log.Default())

			_, err = g.Run(cmd.Context())
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.table, "table", "t", "", "table name (required)")
	f.StringVarP(&flags.project, "project", "p", "", "go module path of the project the code is generated for")
	f.StringVarP(&flags.out, "out", "o", "", "output directory (default ~/Documents)")
	f.BoolVar(&flags.flat, "flat", false, "write all files directly into the output directory")
	f.BoolVar(&flags.print, "print", false, "print the generated model to stdout")
	f.StringVar(&flags.driver, "driver", "", "database driver: mysql or sqlite3")
	f.StringVar(&flags.dsn, "dsn", "", "data source name, overrides host/port/user/password/database")
	f.StringVar(&flags.host, "host", "", "database host")
	f.StringVar(&flags.port, "port", "", "database port")
	f.StringVarP(&flags.user, "user", "u", "", "database user")
	f.StringVar(&flags.password, "password", "", "database password")
	f.StringVarP(&flags.database, "database", "d", "", "database name, or file path for sqlite3")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

// genOptions 配置文件提供默认值，命令行中显式给出的参数优先
func genOptions(cmd *cobra.Command, app *AppConfig, flags *genFlags) *codegen.Options {
	options := &codegen.Options{
		Table:     flags.table,
		Project:   app.Gen.Project,
		OutputDir: app.Gen.OutputDir,
		Flat:      app.Gen.Flat,
		Print:     flags.print,
		Source:    app.Database,
	}

	changed := cmd.Flags().Changed
	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"project", flags.project, &options.Project},
		{"out", flags.out, &options.OutputDir},
		{"driver", flags.driver, &options.Source.Driver},
		{"dsn", flags.dsn, &options.Source.DSN},
		{"host", flags.host, &options.Source.Host},
		{"port", flags.port, &options.Source.Port},
		{"user", flags.user, &options.Source.Username},
		{"password", flags.password, &options.Source.Password},
		{"database", flags.database, &options.Source.Database},
	}
	for _, o := range overrides {
		if changed(o.flag) {
			*o.dst = o.value
		}
	}
	if changed("flat") {
		options.Flat = flags.flat
	}
	return options
}
