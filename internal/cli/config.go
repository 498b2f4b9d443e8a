// File: internal/cli/config.go (complete file)

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/baptistax/egressprobe/internal/api"
	"github.com/baptistax/egressprobe/internal/probe"
	"github.com/baptistax/egressprobe/internal/vantage"
)

const (
	defaultConfigFile = "egressprobe.conf"
	defaultExportsDir = "exports"
)

type snapshotCmd struct{}

type monitorCmd struct {
	Interval time.Duration `long:"interval" description:"Time between automatic re-probes"`
}

type serveCmd struct {
	Listen string `long:"listen" description:"Address for the local API"`
}

type versionCmd struct{}

// config holds every option. Global options may also come from an INI
// config file; command line values win.
type config struct {
	ConfigFile   string        `short:"C" long:"configfile" description:"Path to configuration file"`
	LogLevel     string        `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical, off} or SUBSYSTEM=level pairs"`
	LogFile      string        `long:"logfile" description:"Also write logs to this file, rotated"`
	Format       string        `long:"format" choice:"text" choice:"json" description:"Output format"`
	Exports      string        `long:"exports" description:"Base directory for run exports"`
	Timeout      time.Duration `long:"timeout" description:"Overall deadline for a snapshot"`
	ProbeTimeout time.Duration `long:"probetimeout" description:"Deadline for one vantage point, from request start to parsed response"`
	Vantage      []string      `long:"vantage" description:"Vantage point as name,kind,url; kind is local-exit, global-exit or acceleration-node. Repeatable; replaces the defaults"`
	Family       string        `long:"family" choice:"any" choice:"ipv4" choice:"ipv6" description:"Address family for probe connections"`
	Proxy        string        `long:"proxy" description:"Route probes through a SOCKS5 proxy at host:port"`
	ProxyUser    string        `long:"proxyuser" description:"Username for the SOCKS5 proxy"`
	ProxyPass    string        `long:"proxypass" default-mask:"-" description:"Password for the SOCKS5 proxy"`
	STUN         []string      `long:"stun" description:"ICE server URL for candidate gathering (stun:host:port). Repeatable"`
	NoScan       bool          `long:"noscan" description:"Skip the peer-connection candidate scan"`
	GeoIPDB      string        `long:"geoipdb" description:"MaxMind City database used to locate public candidates"`

	Snapshot snapshotCmd `command:"snapshot" description:"Probe every vantage point, scan for candidates and export the result (default)"`
	Monitor  monitorCmd  `command:"monitor" description:"Re-probe periodically and report changes"`
	Serve    serveCmd    `command:"serve" description:"Serve a local API with a live status stream"`
	Version  versionCmd  `command:"version" description:"Print version information"`

	command string
	points  []vantage.Point
}

func defaultConfig() config {
	return config{
		LogLevel:     "info",
		Format:       "text",
		Exports:      defaultExportsDir,
		Timeout:      60 * time.Second,
		ProbeTimeout: probe.DefaultTimeout,
		Family:       "any",
		Monitor:      monitorCmd{Interval: 30 * time.Second},
		Serve:        serveCmd{Listen: api.DefaultAddress},
	}
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// loadConfig follows the usual order: defaults, then the config file, then
// the command line. A pre-parse finds the config file first so that command
// line options override values read from it.
func loadConfig(args []string, stdout io.Writer) (*config, error) {
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash|flags.IgnoreUnknown)
	preParser.SubcommandsOptional = true
	if _, err := preParser.ParseArgs(args); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return nil, err
		}
	}

	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true

	configFile := preCfg.ConfigFile
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}
	if explicit || fileExists(configFile) {
		if err := flags.NewIniParser(parser).ParseFile(configFile); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", configFile, err)
		}
	}

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", rest)
	}

	cfg.command = "snapshot"
	if parser.Active != nil {
		cfg.command = parser.Active.Name
	}

	if cfg.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("--probetimeout must be positive, got %s", cfg.ProbeTimeout)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("--timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Monitor.Interval <= 0 {
		return nil, fmt.Errorf("--interval must be positive, got %s", cfg.Monitor.Interval)
	}
	// The proxy resolves and dials the target itself, so the local family
	// cannot be enforced.
	if cfg.Proxy != "" && cfg.Family != "any" {
		return nil, fmt.Errorf("--family %s cannot be combined with --proxy", cfg.Family)
	}

	if len(cfg.Vantage) == 0 {
		cfg.points = vantage.Defaults()
	} else {
		for _, spec := range cfg.Vantage {
			p, err := vantage.ParsePoint(spec)
			if err != nil {
				return nil, err
			}
			cfg.points = append(cfg.points, p)
		}
	}
	if err := vantage.Validate(cfg.points); err != nil {
		return nil, err
	}

	return &cfg, nil
}
