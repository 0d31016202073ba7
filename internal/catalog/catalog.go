// Package catalog holds the static chain, balance and price tables served by the dashboard.
//
// The tables are embedded as YAML, parsed and validated once, and never mutated
// afterwards. Every accessor returns a copy, so callers cannot alter shared state.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultData []byte

// Chain describes a supported network.
type Chain struct {
	ID     string   `yaml:"id"`
	Native string   `yaml:"native"`
	Tokens []string `yaml:"tokens"`
}

type document struct {
	Chains   []Chain                      `yaml:"chains"`
	Balances map[string]map[string]string `yaml:"balances"`
	Prices   map[string]float64           `yaml:"prices"`
}

// Catalog is an immutable view of the demo tables.
type Catalog struct {
	chains   []Chain
	index    map[string]int
	balances map[string]map[string]string
	prices   map[string]float64
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Load(defaultData)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded tables are invalid: %v", err))
	}
	return c
})

// Default returns the catalog built from the embedded tables.
func Default() *Catalog {
	return loadDefault()
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		chains:   doc.Chains,
		index:    make(map[string]int, len(doc.Chains)),
		balances: doc.Balances,
		prices:   doc.Prices,
	}
	for i, chain := range doc.Chains {
		c.index[chain.ID] = i
	}
	return c, nil
}

func (d *document) validate() error {
	if len(d.Chains) == 0 {
		return fmt.Errorf("catalog defines no chains")
	}

	known := make(map[string]Chain, len(d.Chains))
	for _, chain := range d.Chains {
		if chain.ID == "" || chain.ID != strings.ToLower(chain.ID) {
			return fmt.Errorf("chain id %q must be non-empty and lowercase", chain.ID)
		}
		if _, dup := known[chain.ID]; dup {
			return fmt.Errorf("duplicate chain %q", chain.ID)
		}
		if !lo.Contains(chain.Tokens, chain.Native) {
			return fmt.Errorf("chain %q: native token %q is not in its token list", chain.ID, chain.Native)
		}
		known[chain.ID] = chain
	}

	for chainID, tokens := range d.Balances {
		chain, ok := known[chainID]
		if !ok {
			return fmt.Errorf("balances reference unknown chain %q", chainID)
		}
		for token, amount := range tokens {
			if !lo.Contains(chain.Tokens, token) {
				return fmt.Errorf("balances for %q reference unsupported token %q", chainID, token)
			}
			if _, err := decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("balance %s/%s is not a decimal: %w", chainID, token, err)
			}
		}
	}
	for _, chain := range d.Chains {
		if _, ok := d.Balances[chain.ID]; !ok {
			return fmt.Errorf("chain %q has no balances", chain.ID)
		}
	}

	allTokens := lo.Uniq(lo.FlatMap(d.Chains, func(c Chain, _ int) []string { return c.Tokens }))
	for token, price := range d.Prices {
		if !lo.Contains(allTokens, token) {
			return fmt.Errorf("price for unknown token %q", token)
		}
		if price < 0 {
			return fmt.Errorf("price for %q is negative", token)
		}
	}

	return nil
}

// Chains returns the supported chains in table order.
func (c *Catalog) Chains() []Chain {
	return lo.Map(c.chains, func(chain Chain, _ int) Chain {
		chain.Tokens = append([]string(nil), chain.Tokens...)
		return chain
	})
}

// ChainNames returns the supported chain identifiers in table order.
func (c *Catalog) ChainNames() []string {
	return lo.Map(c.chains, func(chain Chain, _ int) string { return chain.ID })
}

// Chain looks up a chain by its lowercase identifier.
func (c *Catalog) Chain(id string) (Chain, bool) {
	i, ok := c.index[id]
	if !ok {
		return Chain{}, false
	}
	chain := c.chains[i]
	chain.Tokens = append([]string(nil), chain.Tokens...)
	return chain, true
}

// Balances returns a copy of the stub balances for a chain.
func (c *Catalog) Balances(chainID string) (map[string]string, bool) {
	tokens, ok := c.balances[chainID]
	if !ok {
		return nil, false
	}
	return lo.Assign(tokens), true
}

// Price returns the USD unit price of a token symbol. Lookup is case-sensitive.
func (c *Catalog) Price(token string) (float64, bool) {
	price, ok := c.prices[token]
	return price, ok
}
