package federation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	default:
		return "", fmt.Errorf("unknown network: %s", s)
	}
}

type Contact struct {
	Email    string `yaml:"email,omitempty"`
	Telegram string `yaml:"telegram,omitempty"`
	Matrix   string `yaml:"matrix,omitempty"`
	Twitter  string `yaml:"twitter,omitempty"`
	Website  string `yaml:"website,omitempty"`
}

type Coordinator struct {
	Alias               string   `yaml:"alias"`
	Description         string   `yaml:"description,omitempty"`
	CoverLetter         string   `yaml:"coverLetter,omitempty"`
	Logo                string   `yaml:"logo,omitempty"`
	Color               string   `yaml:"color,omitempty"`
	Contact             Contact  `yaml:"contact"`
	MainnetOnion        string   `yaml:"mainnetOnion,omitempty"`
	MainnetClearnet     string   `yaml:"mainnetClearnet,omitempty"`
	TestnetOnion        string   `yaml:"testnetOnion,omitempty"`
	TestnetClearnet     string   `yaml:"testnetClearnet,omitempty"`
	MainnetNodesPubkeys []string `yaml:"mainnetNodesPubkeys"`
	TestnetNodesPubkeys []string `yaml:"testnetNodesPubkeys"`
}

// Endpoint returns the configured host for network, onion or clearnet.
func (c Coordinator) Endpoint(network Network, onion bool) string {
	switch {
	case network == Testnet && onion:
		return c.TestnetOnion
	case network == Testnet:
		return c.TestnetClearnet
	case onion:
		return c.MainnetOnion
	default:
		return c.MainnetClearnet
	}
}

func (c Coordinator) NodePubkeys(network Network) []string {
	if network == Testnet {
		return c.TestnetNodesPubkeys
	}
	return c.MainnetNodesPubkeys
}

//go:embed federation.yaml
var defaultFederation []byte

// Default returns the federation shipped with the client.
func Default() ([]Coordinator, error) {
	return Parse(defaultFederation)
}

// Load reads a federation file. YAML and JSON are both accepted.
func Load(path string) ([]Coordinator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read federation %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Coordinator, error) {
	var coordinators []Coordinator
	if err := yaml.Unmarshal(data, &coordinators); err != nil {
		return nil, fmt.Errorf("failed to parse federation: %w", err)
	}
	if len(coordinators) == 0 {
		return nil, errors.New("federation is empty")
	}
	for i, c := range coordinators {
		if c.Alias == "" {
			return nil, fmt.Errorf("coordinator %d has no alias", i)
		}
	}
	return coordinators, nil
}
