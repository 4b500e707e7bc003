package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/stockroom/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool             `help:"Enable debug mode."`
		Version kong.VersionFlag `help:"Print version and exit."`
		Config  kong.ConfigFlag  `help:"Load flag defaults from a YAML file."`

		Serve   commands.ServeCmd   `cmd:"" help:"Start the stockroom website"`
		Migrate commands.MigrateCmd `cmd:"" help:"Database maintenance"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("stockroom"),
		kong.Description("Multi-tenant inventory and user management."),
		kong.Configuration(commands.YAML, "/etc/stockroom/config.yaml", "~/.stockroom.yaml"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
