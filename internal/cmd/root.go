package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version  VersionCmd  `cmd:"" help:"Print version."`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration."`
	Run      RunCmd      `cmd:"" default:"withargs" help:"Scrape listings once and merge them into the output file."`
	Schedule ScheduleCmd `cmd:"" help:"Scrape on a fixed interval until interrupted."`
	Status   StatusCmd   `cmd:"" help:"Show the last run and stored record count."`
	Merge    MergeCmd    `cmd:"" help:"Merge one listings CSV into another by Job URL."`
	Proxies  ProxiesCmd  `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
