package config

import (
	"fmt"
	"sort"
)

// network preset names
const (
	NetworkPolygon = "polygon"
	NetworkAmoy    = "amoy"
)

// Network holds the per-chain defaults a run starts from
type Network struct {
	Name        string
	RPCURL      string
	ExplorerURL string
	Contract    string
}

// RPC endpoints and explorers
var networks = map[string]Network{
	NetworkPolygon: {
		Name:        NetworkPolygon,
		RPCURL:      "https://rpc-mainnet.maticvigil.com",
		ExplorerURL: "https://polygonscan.com",
		Contract:    "0x3a1F862D8323138F14494f9Fb50c537906b12B81",
	},
	// the claim contract is not deployed on amoy, set it explicitly
	NetworkAmoy: {
		Name:        NetworkAmoy,
		RPCURL:      "https://rpc-amoy.polygon.technology",
		ExplorerURL: "https://amoy.polygonscan.com",
	},
}

// LookupNetwork returns the preset with the given name
func LookupNetwork(name string) (Network, error) {
	network, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network: %s. Supported networks: %s, %s", name, NetworkPolygon, NetworkAmoy)
	}
	return network, nil
}

// Networks returns every preset ordered by name
func Networks() []Network {
	list := make([]Network, 0, len(networks))
	for _, network := range networks {
		list = append(list, network)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
