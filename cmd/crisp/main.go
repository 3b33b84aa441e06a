package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"crisp/internal/builtins"
	"crisp/internal/evaluator"
	"crisp/internal/loader"
	"crisp/internal/repl"
	"crisp/internal/util"
	"crisp/internal/value"
)

var (
	// Version is stamped at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config
	configPath string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Path to a TOML configuration file")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	cfg := util.DefaultConfiguration()
	cfg.Version = Version
	cfg.BuildDate = BuildDate
	cfg.Commit = Commit

	if configPath != "" {
		if err := util.LoadConfiguration(configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config '%s': %v\n", configPath, err)
			os.Exit(1)
		}
	} else if path := util.DefaultConfigPath(); path != "" {
		if err := util.LoadConfiguration(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to load config '%s': %v\n", path, err)
			os.Exit(1)
		}
	}

	if cfg.MaxStackBytes > 0 {
		// Deep recursion mirrors source nesting; the limit is tunable
		// rather than rewritten as an explicit work list.
		debug.SetMaxStack(cfg.MaxStackBytes)
	}

	env := value.NewEnvironment()
	builtins.Register(env)
	ev := evaluator.New(env)

	files := flag.Args()
	if len(files) == 0 {
		if err := repl.Start(ev, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	for _, file := range files {
		var err error
		if file == "-" {
			_, err = loader.EvalStdin(ev)
		} else {
			_, err = loader.EvalFile(ev, file)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("crisp version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: crisp [options] [file ...]

Options:
  -config <path>     Load settings (prompt, history-file, max-stack-bytes) from a TOML file.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Without file arguments crisp starts an interactive session; 'exit' or 'quit'
leaves it. Each file argument is evaluated in order as one program, with '-'
reading from stdin. The first evaluation or read error stops the run with a
nonzero exit code.

Examples:
  crisp                         Start the interactive session
  crisp program.cr              Evaluate the given file
  crisp lib.cr main.cr          Evaluate files in order against one environment
  echo '(+ 1 2)' | crisp -      Evaluate stdin

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
