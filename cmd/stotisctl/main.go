// Stotisctl is the command-line client for monitoring and controlling a
// running stotisd instance. It connects over HTTP and WebSocket to query
// status, edit the tracked-satellite list, and stream live events.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/palydovai/stotis/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8089", "Stotis daemon URL (e.g. http://192.168.8.1:8089)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,log)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --days are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "passes":
		opts := ctl.PassesOptions{JSON: *jsonOut}
		passFlags := pflag.NewFlagSet("passes", pflag.ContinueOnError)
		passFlags.IntVar(&opts.Count, "count", 0, "Limit number of passes shown")
		passFlags.StringVar(&opts.Satellite, "satellite", "", "Filter by satellite name")
		_ = passFlags.Parse(subArgs)
		err = ctl.Passes(*host, opts)

	case "settings":
		switch {
		case len(subArgs) == 0 || subArgs[0] == "get":
			err = ctl.SettingsGet(*host, *jsonOut)
		case subArgs[0] == "set" && len(subArgs) == 3:
			err = ctl.SettingsSet(*host, subArgs[1], subArgs[2], *jsonOut)
		default:
			err = fmt.Errorf("usage: stotisctl settings [get | set KEY VALUE]")
		}

	case "satlist":
		switch {
		case len(subArgs) == 0:
			err = ctl.SatlistShow(*host, *jsonOut)
		case subArgs[0] == "add" || subArgs[0] == "remove":
			if len(subArgs) < 2 {
				err = fmt.Errorf("usage: stotisctl satlist %s NAME", subArgs[0])
				break
			}
			// Catalog labels contain spaces: join the rest of the args.
			err = ctl.SatlistEdit(*host, subArgs[0], strings.Join(subArgs[1:], " "), *jsonOut)
		default:
			err = fmt.Errorf("usage: stotisctl satlist [add NAME | remove NAME]")
		}

	case "select":
		switch {
		case len(subArgs) == 2 && (subArgs[0] == "add" || subArgs[0] == "remove"):
			err = ctl.Select(*host, subArgs[0], subArgs[1], *jsonOut)
		case len(subArgs) == 1 && subArgs[0] == "clear":
			err = ctl.Select(*host, "clear", "", *jsonOut)
		default:
			err = fmt.Errorf("usage: stotisctl select [add ID | remove ID | clear]")
		}

	case "names":
		query := strings.Join(subArgs, " ")
		err = ctl.Names(*host, query, *jsonOut)

	case "tle":
		switch {
		case len(subArgs) == 0 || subArgs[0] == "show":
			err = ctl.TLEShow(*host)
		case subArgs[0] == "push" && len(subArgs) == 2:
			err = ctl.TLEPush(*host, subArgs[1], *jsonOut)
		default:
			err = fmt.Errorf("usage: stotisctl tle [show | push FILE]")
		}

	// ── Control commands ──────────────────────────────────────────
	case "replan":
		err = ctl.Replan(*host, *jsonOut)

	case "cleanup":
		days := 0
		cleanFlags := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
		cleanFlags.IntVar(&days, "days", 0, "Retention in days (default: daemon setting)")
		_ = cleanFlags.Parse(subArgs)
		err = ctl.Cleanup(*host, days, *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  stotisctl — stotis ground-station control CLI

  USAGE
    stotisctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, uptime, and current activity
    health          Check daemon liveness
    version         Show CLI and daemon version information
    passes          List planned satellite passes
    settings        Show settings, or change one: settings set KEY VALUE
    satlist         Show the tracked-satellite list, or edit it
    names           Search the TLE catalog by substring
    tle             Dump the catalog, or push a file: tle push FILE

  COMMANDS (control)
    replan          Rebuild the pass plan now
    cleanup         Delete gallery directories older than the retention
    select          Pick a pass to win its conflicts: select add ID

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8089)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    passes:
        --count N           Limit number of passes shown
        --satellite NAME    Filter by satellite name

    cleanup:
        --days N            Retention in days (default: daemon setting)

  EXAMPLES
    stotisctl status
    stotisctl --json status
    stotisctl --host http://192.168.8.1:8089 watch
    stotisctl passes --satellite "NOAA 19" --count 5
    stotisctl names noaa
    stotisctl satlist add NOAA 19
    stotisctl select add 20250601_1300_NOAA_19
    stotisctl settings set GALLERY_KEEP_DAYS 14
    stotisctl tle push ./tle.txt
    stotisctl replan
    stotisctl cleanup --days 7
    stotisctl watch --filter state,pass_started,pass_finished

`)
}
