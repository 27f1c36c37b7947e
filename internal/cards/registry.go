package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	apiv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
	"github.com/modelcontextprotocol/registry/pkg/model"
	"github.com/stoewer/go-strcase"
)

// ReadRegistryServer reads an MCP registry server.json file.
func ReadRegistryServer(path string) (*apiv0.ServerJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server.json: %w", err)
	}
	var srv apiv0.ServerJSON
	if err := json.Unmarshal(data, &srv); err != nil {
		return nil, fmt.Errorf("failed to parse server.json: %w", err)
	}
	return &srv, nil
}

// RegistryCardID derives a card id from a registry server name such as
// "io.github.acme/Weather-Server": the last path segment in kebab case.
func RegistryCardID(serverName string) string {
	name := serverName
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strcase.KebabCase(name)
}

// FromRegistryServer converts a registry server definition into a card.
//
// The first package wins over remotes: npm and pypi packages become
// package-runner cards, oci packages become container cards. A server with
// only remotes becomes an http-endpoint card. Other package types convert
// to an unknown-kind card so they still show up in the catalog.
func FromRegistryServer(srv *apiv0.ServerJSON) (Card, error) {
	if srv == nil || strings.TrimSpace(srv.Name) == "" {
		return Card{}, fmt.Errorf("registry server has no name")
	}
	if len(srv.Packages) == 0 && len(srv.Remotes) == 0 {
		return Card{}, fmt.Errorf("registry server %q has no packages or remotes", srv.Name)
	}

	id := RegistryCardID(srv.Name)
	name := srv.Title
	if name == "" {
		name = id
	}

	card := Card{
		ID:          id,
		Name:        name,
		Description: srv.Description,
		Status:      StatusActive,
		Category:    "registry",
	}

	if len(srv.Packages) > 0 {
		fromRegistryPackage(&card, srv.Packages[0])
	} else {
		fromRegistryRemote(&card, srv.Remotes[0])
	}
	card.KindName = card.Kind.String()

	if err := Validate(card); err != nil {
		return Card{}, err
	}
	return card, nil
}

func fromRegistryPackage(card *Card, pkg model.Package) {
	ref := pkg.Identifier

	switch pkg.RegistryType {
	case model.RegistryTypeNPM:
		card.Kind = KindPackageRunner
		if pkg.Version != "" {
			ref += "@" + pkg.Version
		}
		card.Deployment.Runtime = "npx"
	case model.RegistryTypePyPI:
		card.Kind = KindPackageRunner
		if pkg.Version != "" {
			ref += "==" + pkg.Version
		}
		card.Deployment.Runtime = "uvx"
	case model.RegistryTypeOCI:
		card.Kind = KindContainer
		card.Deployment.Image = ref
	default:
		card.Kind = KindUnknown
	}
	card.Tags = append(card.Tags, pkg.RegistryType)
	if card.Kind == KindPackageRunner {
		card.Deployment.Package = ref
	}

	card.Deployment.Args = registryArgs(pkg.PackageArguments)
	for _, env := range pkg.EnvironmentVariables {
		card.Variables = append(card.Variables, registryVariable(env))
	}
}

func fromRegistryRemote(card *Card, remote model.Transport) {
	card.Kind = KindHTTPEndpoint
	card.Deployment.URL = remote.URL
	card.Tags = append(card.Tags, "remote")

	for _, h := range remote.Headers {
		if card.Deployment.Headers == nil {
			card.Deployment.Headers = make(map[string]string)
		}
		if h.Value != "" {
			card.Deployment.Headers[h.Name] = h.Value
			continue
		}
		v := registryVariable(h)
		v.Name = strcase.UpperSnakeCase(h.Name)
		card.Variables = append(card.Variables, v)
		card.Deployment.Headers[h.Name] = "${" + v.Name + "}"
	}
}

// registryArgs flattens positional then named arguments, the order a
// registry client passes them.
func registryArgs(args []model.Argument) []string {
	var out []string
	value := func(a model.Argument) string {
		if a.Value != "" {
			return a.Value
		}
		return a.Default
	}
	for _, a := range args {
		if a.Type == model.ArgumentTypePositional {
			if v := value(a); v != "" {
				out = append(out, v)
			}
		}
	}
	for _, a := range args {
		if a.Type == model.ArgumentTypeNamed {
			out = append(out, a.Name)
			if v := value(a); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func registryVariable(in model.KeyValueInput) Variable {
	return Variable{
		Name:        in.Name,
		Description: in.Description,
		Required:    Boolp(in.IsRequired),
		Example:     in.Default,
		Secret:      in.IsSecret,
	}
}
