package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/davecheney/revise/internal/config"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Context struct {
	Debug     bool
	Logger    *slog.Logger
	Settings  config.Config
	Dialector gorm.Dialector

	gorm.Config
}

// openDB opens the database and applies the connection settings of the dialect.
func (c *Context) openDB() (*gorm.DB, error) {
	db, err := gorm.Open(c.Dialector, &c.Config)
	if err != nil {
		return nil, err
	}
	return db, configureDB(db, &c.Settings.Database)
}

var cli struct {
	Debug  bool   `help:"Enable debug mode."`
	DSN    string `help:"data source name" required:""`
	Config string `help:"path to the YAML configuration file" type:"path"`

	AutoMigrate   AutoMigrateCmd   `cmd:"" help:"Automatically migrate the database."`
	Serve         ServeCmd         `cmd:"" help:"Serve the API and run the background workers."`
	ProcessUpdate ProcessUpdateCmd `cmd:"" help:"Apply an Update activity read from a file."`
	HouseKeeping  HouseKeepingCmd  `cmd:"" help:"Remove exhausted background requests."`
}

func main() {
	ctx := kong.Parse(&cli)

	level := slog.LevelInfo
	gormLevel := logger.Warn
	if cli.Debug {
		level = slog.LevelDebug
		gormLevel = logger.Info
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings, err := config.Load(cli.Config)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&Context{
		Debug:     cli.Debug,
		Logger:    log,
		Settings:  settings,
		Dialector: newDialector(cli.DSN),
		Config: gorm.Config{
			Logger: logger.Default.LogMode(gormLevel),
		},
	})
	ctx.FatalIfErrorf(err)
}
