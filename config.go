package main

// reading the command line and configuration file

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A config is built once at startup and never modified afterward.
type config struct {
	Port int

	// Root is the absolute path of the root folder, with symlinks evaluated.
	Root string

	BindAddress string
	AccessLog   string
	PIDFile     string

	Compress    bool
	GZIPLevel   int
	BrotliLevel int

	// InheritEnv lists the server environment variables that are passed
	// through to scripts.
	InheritEnv []string

	// TestRequest, if set, is a request line to run through the router
	// instead of starting the server.
	TestRequest string
}

// Addr returns the address to listen on.
func (c *config) Addr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

var errUsage = errors.New("usage: tinyhttpd [flags] PORT ROOT_FOLDER")

// loadConfiguration builds the configuration from the command-line
// arguments (without the program name), and from the configuration file
// if one is named with -c.
func loadConfiguration(args []string) (*config, error) {
	return loadConfigurationOutput(args, os.Stderr)
}

func loadConfigurationOutput(args []string, output io.Writer) (*config, error) {
	conf := new(config)

	fs := flag.NewFlagSet("tinyhttpd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), errUsage)
		fs.PrintDefaults()
	}

	configFile := fs.String("c", "", "path to YAML configuration file")
	fs.StringVar(&conf.BindAddress, "addr", "0.0.0.0", "address to listen on")
	fs.StringVar(&conf.AccessLog, "access-log", "", "path to access-log file (default standard output)")
	fs.StringVar(&conf.PIDFile, "pidfile", "", "path of file to store process ID")
	fs.BoolVar(&conf.Compress, "compress", true, "compress static responses for clients that accept it")
	fs.IntVar(&conf.GZIPLevel, "gzip-level", gzip.DefaultCompression, "gzip compression level (-3 to 9)")
	fs.IntVar(&conf.BrotliLevel, "brotli-level", 5, "brotli compression quality (0 to 11)")
	inheritEnv := fs.String("inherit-env", "PATH", "comma-separated list of environment variables passed through to scripts")
	fs.StringVar(&conf.TestRequest, "test", "", `request line to test (e.g. "GET /index.html") instead of running the server`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) {
			explicit[f.Name] = true
		})
		if err := readConfigFile(fs, *configFile, explicit); err != nil {
			return nil, err
		}
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errUsage
	}

	port, err := strconv.Atoi(fs.Arg(0))
	if err != nil || port < 0 || port > 65535 {
		return nil, errors.Errorf("invalid port number: %q", fs.Arg(0))
	}
	conf.Port = port

	root, err := canonicalRoot(fs.Arg(1))
	if err != nil {
		return nil, err
	}
	conf.Root = root

	if conf.GZIPLevel < gzip.StatelessCompression || conf.GZIPLevel > gzip.BestCompression {
		return nil, errors.Errorf("invalid gzip level: %d", conf.GZIPLevel)
	}
	if conf.BrotliLevel < 0 || conf.BrotliLevel > 11 {
		return nil, errors.Errorf("invalid brotli level: %d", conf.BrotliLevel)
	}

	for _, name := range strings.Split(*inheritEnv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			conf.InheritEnv = append(conf.InheritEnv, name)
		}
	}

	return conf, nil
}

// canonicalRoot returns the absolute path of dir, with symlinks evaluated.
// dir must exist and be a directory.
func canonicalRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "invalid root folder %s", dir)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Errorf("the specified root folder does not exist: %s", dir)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrapf(err, "checking root folder %s", dir)
	}
	if !fi.IsDir() {
		return "", errors.Errorf("the specified root folder is not a directory: %s", dir)
	}
	return root, nil
}

// readConfigFile reads a YAML mapping from flag names to values, and sets
// each flag that was not given explicitly on the command line. A list value
// is joined with commas.
func readConfigFile(fs *flag.FlagSet, filename string, explicit map[string]bool) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return errors.Wrapf(err, "parsing config file %s", filename)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if explicit[key] || key == "c" {
			continue
		}
		if fs.Lookup(key) == nil {
			log.Printf("Unknown setting in config file %s: %s", filename, key)
			continue
		}

		var value string
		switch v := values[key].(type) {
		case nil:
		case []interface{}:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = fmt.Sprint(item)
			}
			value = strings.Join(items, ",")
		default:
			value = fmt.Sprint(v)
		}

		if err := fs.Set(key, value); err != nil {
			return errors.Wrapf(err, "could not set %s to %q", key, value)
		}
	}
	return nil
}
