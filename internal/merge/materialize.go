package merge

import (
	"fmt"
	"sort"
	"strings"

	"mcpconf/internal/cards"
)

// strategy materializes one deployment kind.
type strategy func(card cards.Card, provided map[string]string) Instance

var strategies = map[cards.DeploymentKind]strategy{
	cards.KindContainer:     materializeContainer,
	cards.KindPackageRunner: materializePackageRunner,
	cards.KindNativeBinary:  materializeNativeBinary,
	cards.KindHTTPEndpoint:  materializeHTTPEndpoint,
}

func strategyFor(kind cards.DeploymentKind) strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return materializeUnknown
}

// Materialize builds the runnable instance for card from provided values.
// It never fails: unknown deployment kinds produce a placeholder command
// and missing values stay as ${NAME} placeholders.
func Materialize(card cards.Card, provided map[string]string) Instance {
	provided = cloneMap(provided)
	if provided == nil {
		provided = map[string]string{}
	}

	in := strategyFor(card.Kind)(card, provided)
	in.ID = card.ID
	in.CardID = card.ID
	in.Provided = provided
	return in
}

// envFor maps declared variables for stdio servers: the provided value,
// a placeholder for required variables without one, nothing for optional
// ones.
func envFor(card cards.Card, provided map[string]string) map[string]string {
	env := make(map[string]string)
	for _, v := range card.Variables {
		if val := provided[v.Name]; val != "" {
			env[v.Name] = val
		} else if v.IsRequired() {
			env[v.Name] = Placeholder(v.Name)
		}
	}
	if len(env) == 0 {
		return nil
	}
	return env
}

func substituteAll(in []string, provided map[string]string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Substitute(s, provided)
	}
	return out
}

func materializeContainer(card cards.Card, provided map[string]string) Instance {
	env := envFor(card, provided)

	args := []string{"run", "-i", "--rm"}
	// -e NAME passes the value through from env
	for _, v := range card.Variables {
		if _, ok := env[v.Name]; ok {
			args = append(args, "-e", v.Name)
		}
	}

	image := card.Deployment.Image
	if image == "" {
		image = card.Deployment.Package
	}
	args = append(args, Substitute(image, provided))
	args = append(args, substituteAll(card.Deployment.Args, provided)...)

	command := card.Deployment.Command
	if command == "" {
		command = "docker"
	}

	return Instance{
		Type:    TypeStdio,
		Command: command,
		Args:    args,
		Env:     env,
	}
}

// pythonRuntimes select uvx as the package runner.
var pythonRuntimes = map[string]bool{"uvx": true, "uv": true, "pypi": true, "python": true, "pip": true}

func materializePackageRunner(card cards.Card, provided map[string]string) Instance {
	pkg := Substitute(card.Deployment.Package, provided)
	runtime := strings.ToLower(strings.TrimSpace(card.Deployment.Runtime))

	var command string
	var args []string
	switch {
	case card.Deployment.Command != "":
		command = Substitute(card.Deployment.Command, provided)
		if pkg != "" {
			args = append(args, pkg)
		}
	case pythonRuntimes[runtime]:
		command = "uvx"
		args = append(args, pkg)
	default:
		command = "npx"
		args = append(args, "-y", pkg)
	}
	args = append(args, substituteAll(card.Deployment.Args, provided)...)

	return Instance{
		Type:    TypeStdio,
		Command: command,
		Args:    args,
		Env:     envFor(card, provided),
	}
}

func materializeNativeBinary(card cards.Card, provided map[string]string) Instance {
	return Instance{
		Type:    TypeStdio,
		Command: Substitute(card.Deployment.Command, provided),
		Args:    substituteAll(card.Deployment.Args, provided),
		Env:     envFor(card, provided),
	}
}

func materializeHTTPEndpoint(card cards.Card, provided map[string]string) Instance {
	var headers map[string]string
	if len(card.Deployment.Headers) > 0 {
		headers = make(map[string]string, len(card.Deployment.Headers))
		for k, v := range card.Deployment.Headers {
			headers[k] = Substitute(v, provided)
		}
	}
	return Instance{
		Type:    TypeHTTP,
		URL:     Substitute(card.Deployment.URL, provided),
		Headers: headers,
	}
}

func materializeUnknown(card cards.Card, _ map[string]string) Instance {
	kind := card.KindName
	if kind == "" {
		kind = "missing"
	}
	return Instance{
		Type:    TypeStdio,
		Command: "echo",
		Args: []string{
			fmt.Sprintf("manual configuration required for %s (deployment kind %q)", card.ID, kind),
		},
	}
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
