/*
gopick turns elements of a web page into reusable extraction rules.

Point at elements of a page in an interactive terminal ui, capture them as
typed records, save them as sessions or templates and re-apply templates to
other pages.
*/
package main

import (
	"fmt"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/jakopako/gopick/internal/log"

	_ "github.com/jakopako/gopick/internal/store/postgres"
	_ "github.com/jakopako/gopick/internal/store/sqlite"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store fetched pages for debugging."`

	Pick      PickCmd      `cmd:"" help:"Interactively pick elements of the page at the given URL."`
	Capture   CaptureCmd   `cmd:"" help:"Capture a single element of a page without the interactive ui."`
	Apply     ApplyCmd     `cmd:"" help:"Apply a saved template to the page at the given URL."`
	Sessions  SessionsCmd  `cmd:"" help:"Manage saved sessions."`
	Templates TemplatesCmd `cmd:"" help:"Manage saved templates."`
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name("gopick"),
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
