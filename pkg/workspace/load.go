package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/matzehuels/buildorder/pkg/errors"
)

// Format is a workspace description syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatJSON Format = "json"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported workspace file %q (want .toml, .hcl or .json)", filepath.Base(path))
}

// Load reads and validates a workspace description from path.
func Load(path string) (*Workspace, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "workspace file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read workspace file %s", path)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "resolve workspace dir")
	}
	return Parse(data, format, path, dir)
}

// ParseOptions controls how a description is decoded.
type ParseOptions struct {
	// NoEnv turns off $VAR expansion in TOML and JSON bundle locations and
	// removes the env object from HCL expressions. Set it for descriptions
	// that do not come from the local user.
	NoEnv bool
}

// Parse decodes and validates a workspace description with environment
// expansion enabled. filename is used in diagnostics only; dir becomes
// Workspace.Dir.
func Parse(data []byte, format Format, filename, dir string) (*Workspace, error) {
	return ParseWith(data, format, filename, dir, ParseOptions{})
}

// ParseWith is Parse with explicit options.
func ParseWith(data []byte, format Format, filename, dir string, opts ParseOptions) (*Workspace, error) {
	var ws Workspace
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &ws); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "decode %s", filename)
		}
		if !opts.NoEnv {
			ws.expandEnv()
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "decode %s", filename)
		}
		if !opts.NoEnv {
			ws.expandEnv()
		}
	case FormatHCL:
		if err := decodeHCL(data, filename, evalContext(dir, !opts.NoEnv), &ws); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported workspace format %q", format)
	}

	ws.Dir = dir
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

func decodeHCL(data []byte, filename string, ctx *hcl.EvalContext, ws *Workspace) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return errors.Wrap(errors.ErrCodeInvalidWorkspace, diags, "parse %s", filename)
	}
	diags = gohcl.DecodeBody(file.Body, ctx, ws)
	if diags.HasErrors() {
		return errors.Wrap(errors.ErrCodeInvalidWorkspace, diags, "decode %s", filename)
	}
	return nil
}

// evalContext exposes workspace.dir to HCL expressions, and env.NAME for
// every environment variable when withEnv is set.
func evalContext(dir string, withEnv bool) *hcl.EvalContext {
	vars := map[string]cty.Value{
		"workspace": cty.ObjectVal(map[string]cty.Value{"dir": cty.StringVal(dir)}),
	}
	if withEnv {
		env := make(map[string]cty.Value)
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || !hclsyntax.ValidIdentifier(k) {
				continue
			}
			env[k] = cty.StringVal(v)
		}
		vars["env"] = cty.ObjectVal(env)
	}
	return &hcl.EvalContext{Variables: vars}
}

func (w *Workspace) expandEnv() {
	for i := range w.Bundles {
		for j, loc := range w.Bundles[i].Locations {
			w.Bundles[i].Locations[j] = os.ExpandEnv(loc)
		}
	}
}
