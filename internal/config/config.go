package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/vango-dev/routestate/internal/errors"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "routestate.json"

	// TOMLFileName is the TOML configuration file name.
	TOMLFileName = "routestate.toml"

	// DefaultPort is the default HTTP API port.
	DefaultPort = 8080

	// DefaultHost is the default HTTP API host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultTracerName is the OpenTelemetry tracer name.
	DefaultTracerName = "routestate"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreS3     = "s3"
)

// Parameter kinds.
const (
	KindBoolean = "boolean"
	KindString  = "string"
)

// Config represents a routestate.json or routestate.toml file.
type Config struct {
	// Tree is the route tree definition. The root's name is ignored.
	Tree TreeDef `json:"tree" toml:"tree"`

	// Server configures the HTTP API.
	Server ServerConfig `json:"server,omitempty" toml:"server,omitempty"`

	// Store configures snapshot persistence.
	Store StoreConfig `json:"store,omitempty" toml:"store,omitempty"`

	// InitialURL is imported into the tree after it is built.
	InitialURL string `json:"initialURL,omitempty" toml:"initialURL,omitempty"`

	// configPath is where this config was loaded from.
	configPath string
}

// TreeDef defines a route and its children.
type TreeDef struct {
	Name        string     `json:"name,omitempty" toml:"name,omitempty"`
	CapturePath bool       `json:"capturePath,omitempty" toml:"capturePath,omitempty"`
	Params      []ParamDef `json:"params,omitempty" toml:"params,omitempty"`
	Children    []TreeDef  `json:"children,omitempty" toml:"children,omitempty"`
}

// ParamDef defines a query parameter binding.
type ParamDef struct {
	// Kind is "boolean" or "string".
	Kind string `json:"kind" toml:"kind"`

	// Variable is the state key.
	Variable string `json:"variable" toml:"variable"`

	// Query is the URL query key. Defaults to Variable.
	Query string `json:"query,omitempty" toml:"query,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `json:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" toml:"port,omitempty"`

	// MetricsPath is where Prometheus metrics are served.
	MetricsPath string `json:"metricsPath,omitempty" toml:"metricsPath,omitempty"`

	// DisableMetrics turns off Prometheus metrics.
	DisableMetrics bool `json:"disableMetrics,omitempty" toml:"disableMetrics,omitempty"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `json:"tracerName,omitempty" toml:"tracerName,omitempty"`

	// DisableTracing turns off OpenTelemetry spans.
	DisableTracing bool `json:"disableTracing,omitempty" toml:"disableTracing,omitempty"`

	// AllowedOrigins lists extra origins allowed to open the websocket feed.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" toml:"allowedOrigins,omitempty"`
}

// StoreConfig configures snapshot persistence.
type StoreConfig struct {
	// Kind is "memory", "file" or "s3". Default: memory.
	Kind string `json:"kind,omitempty" toml:"kind,omitempty"`

	// Dir is the snapshot directory for the file store, relative to the
	// config file.
	Dir string `json:"dir,omitempty" toml:"dir,omitempty"`

	Bucket       string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region       string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" toml:"usePathStyle,omitempty"`
}

// New creates a new Config with default values and an empty tree.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from dir. routestate.json is preferred over
// routestate.toml when both exist.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("R104").
		WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + dir).
		WithSuggestion("Create one, or pass --config with the path to a config file")
}

// LoadFile reads configuration from path. Files ending in .toml are parsed
// as TOML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R104").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("R100").Wrap(err)
	}

	cfg := &Config{}
	if isTOML(path) {
		err = decodeTOML(path, data, cfg)
	} else {
		err = decodeJSON(path, data, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decodeJSON(path string, data []byte, cfg *Config) error {
	err := json.Unmarshal(data, cfg)
	if err == nil {
		return nil
	}

	rerr := errors.New("R100").
		WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
		WithSuggestion("Check that the file is valid JSON")
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		line, col := lineCol(data, syntaxErr.Offset)
		rerr.WithLocation(path, line, col)
	case stderrors.As(err, &typeErr):
		line, col := lineCol(data, typeErr.Offset)
		rerr.WithLocation(path, line, col)
	}
	return rerr
}

func decodeTOML(path string, data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		rerr := errors.New("R100").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid TOML")
		var parseErr toml.ParseError
		if stderrors.As(err, &parseErr) {
			rerr.WithLocation(path, parseErr.Position.Line, 0)
		}
		return rerr
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New("R100").
			WithDetail("Unknown keys in " + filepath.Base(path) + ": " + strings.Join(keys, ", ")).
			WithSuggestion("Check the key names for typos")
	}
	return nil
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// SaveTo writes the configuration to path, as TOML if path ends in .toml
// and as indented JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("R100").Wrap(err)
		}
	} else {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("R100").Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New("R100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Server.TracerName == "" {
		c.Server.TracerName = DefaultTracerName
	}

	if c.Store.Kind == "" {
		c.Store.Kind = StoreMemory
	}
	if c.Store.Kind == StoreFile && c.Store.Dir == "" {
		c.Store.Dir = "snapshots"
	}

	if c.InitialURL == "" {
		c.InitialURL = "/"
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, errors.New("R102").
			WithDetail(fmt.Sprintf("Port must be between 0 and 65535, got %d", c.Server.Port)))
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		result = multierror.Append(result, errors.Newf(errors.CategoryConfig,
			"metrics path %q must start with /", c.Server.MetricsPath))
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFile:
	case StoreS3:
		if c.Store.Bucket == "" {
			result = multierror.Append(result, errors.Newf(errors.CategoryConfig, "s3 store needs a bucket"))
		}
		if c.Store.Region == "" {
			result = multierror.Append(result, errors.Newf(errors.CategoryConfig, "s3 store needs a region"))
		}
	default:
		result = multierror.Append(result, errors.New("R103").
			WithDetail(fmt.Sprintf("Unknown store kind %q", c.Store.Kind)).
			WithSuggestion("Use memory, file or s3"))
	}

	c.Tree.validate("/", true, &result)

	return result.ErrorOrNil()
}

func (d *TreeDef) validate(path string, root bool, result **multierror.Error) {
	if !root && d.Name == "" {
		*result = multierror.Append(*result, errors.New("R105").
			WithDetail("A child of " + path + " has no name"))
	}
	if strings.Contains(d.Name, "/") {
		*result = multierror.Append(*result, errors.New("R105").
			WithDetail(fmt.Sprintf("Route name %q under %s contains '/'", d.Name, path)))
	}

	for _, p := range d.Params {
		if p.Kind != KindBoolean && p.Kind != KindString {
			*result = multierror.Append(*result, errors.New("R101").
				WithDetail(fmt.Sprintf("Parameter %q on %s has kind %q", p.Variable, path, p.Kind)).
				WithSuggestion(`Use "boolean" or "string"`))
		}
		if p.Variable == "" {
			*result = multierror.Append(*result, errors.New("R006").
				WithDetail("A parameter on " + path + " has no variable name"))
		}
	}

	seen := make(map[string]bool, len(d.Children))
	for i := range d.Children {
		child := &d.Children[i]
		if child.Name != "" && seen[child.Name] {
			*result = multierror.Append(*result, errors.New("R002").
				WithDetail(fmt.Sprintf("Route %q appears twice under %s", child.Name, path)))
		}
		seen[child.Name] = true
		child.validate(joinPath(path, child.Name), false, result)
	}
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Address returns host:port for the HTTP API.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StoreDir returns the file store directory, resolved against the config
// file's directory when relative.
func (c *Config) StoreDir() string {
	if filepath.IsAbs(c.Store.Dir) || c.configPath == "" {
		return c.Store.Dir
	}
	return filepath.Join(c.Dir(), c.Store.Dir)
}
