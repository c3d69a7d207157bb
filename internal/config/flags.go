package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into label/tool, builder, behavior, display, and utility.
// Exit-triggering flags (--help, --version) are applied after Parse so that
// Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, missing positional
// args). version is shown in --version and the help header.
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("ufs2pack", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs, version) }

	var util utilityFlags

	defineLabelAndToolFlags(fs, cfg)
	defineBuilderFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &util)
	defineUtilityFlags(fs, &util)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyColorFlags(cfg, &util)

	if util.showHelp {
		printUsage(fs, version)
		os.Exit(0)
	}
	if util.showVersion {
		fmt.Fprintln(os.Stdout, "ufs2pack v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// positionalArgsError prints usage before reporting missing positional
// args, so a bare invocation shows how to call the tool.
func positionalArgsError(fs *flag.FlagSet) error {
	fs.Usage()
	return fmt.Errorf("need exactly input path and output image")
}

// utilityFlags holds flags that are applied after Parse. These either
// override a default (color mode) or trigger exit (showHelp, showVersion).
type utilityFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineLabelAndToolFlags registers -l/--label, --makefs, --fuse-archive.
func defineLabelAndToolFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Label, "label", "", "Volume label (max 16 chars; letters, digits, . _ -)")
	fs.StringVar(&cfg.Label, "l", "", "Same as --label")
	fs.StringVar(&cfg.MakefsPath, "makefs", cfg.MakefsPath, "Path to the makefs/UFS2 builder binary")
	fs.StringVar(&cfg.FuseArchivePath, "fuse-archive", cfg.FuseArchivePath, "Path to the fuse-archive binary")
}

// defineBuilderFlags registers --optimization and --mount-timeout.
func defineBuilderFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&optimizationValue{&cfg.Optimization}, "optimization", "Builder optimization: space | time")
	fs.Var(&optimizationValue{&cfg.Optimization}, "O", "Same as --optimization")
	fs.DurationVar(&cfg.MountTimeout, "mount-timeout", cfg.MountTimeout, "How long to wait for an archive mount")
}

// defineBehaviorFlags registers -y/--yes and -d/--dry-run.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.AssumeYes, "yes", false, "Skip the confirmation prompt")
	fs.BoolVar(&cfg.AssumeYes, "y", false, "Same as --yes")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Probe and report only; do not build the image")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&u.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&u.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output (full builder diagnostics)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, u *utilityFlags) {
	fs.BoolVar(&u.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&u.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&u.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&u.showHelp, "h", false, "Same as --help")
}

// applyColorFlags copies the color override flags into cfg.
func applyColorFlags(cfg *Config, u *utilityFlags) {
	if u.noColor {
		cfg.ColorMode = ColorNever
	} else if u.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputPath and OutputImage from the two positional
// args when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 2 {
		return positionalArgsError(fs)
	}
	cfg.InputPath = NormalizePathArg(args[0])
	cfg.OutputImage = args[1]
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "ufs2pack v" + version + " — UFS2 game image packer"},
		{"", ""},
		{"  ufs2pack [OPTIONS] <input> <output-image>", ""},
		{"", ""},
		{"  <input> is a game-data directory, or an archive file that is", ""},
		{"  mounted read-only via fuse-archive for the duration of the build.", ""},
		{"", ""},
		{"Label & tools", ""},
		{"  -l, --label <name>", "Volume label (default: derived from param.json)"},
		{"  --makefs <path>", "UFS2 builder binary (default: search PATH)"},
		{"  --fuse-archive <path>", "Archive mount binary (default: search PATH)"},
		{"", ""},
		{"Builder", ""},
		{"  -O, --optimization <mode>", "Allocation strategy: space | time (default: space)"},
		{"  --mount-timeout <dur>", "Archive mount readiness window (default: 10s)"},
		{"", ""},
		{"Behavior", ""},
		{"  -y, --yes", "Skip the confirmation prompt"},
		{"  -d, --dry-run", "Probe block sizes and report; build nothing"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output (full builder diagnostics)"},
		{"", ""},
		{"Utility", ""},
		{"  --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (makefs, fuse-archive, /dev/fuse)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  UFS2PACK_MAKEFS", "Default for --makefs"},
		{"  UFS2PACK_FUSE_ARCHIVE", "Default for --fuse-archive"},
		{"  UFS2PACK_MOUNT_TIMEOUT", "Default for --mount-timeout"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapter so the Optimization enum can be used with flag.Var.

type optimizationValue struct{ p *Optimization }

func (o *optimizationValue) String() string {
	if o.p == nil {
		return ""
	}
	return string(*o.p)
}

func (o *optimizationValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "space":
		*o.p = OptimizeSpace
	case "time":
		*o.p = OptimizeTime
	default:
		return fmt.Errorf("invalid optimization %q (use 'space' or 'time')", s)
	}
	return nil
}
