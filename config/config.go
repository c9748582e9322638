// Package config loads client configuration from a YAML file or CLI flags.
// Contract addresses are static for the lifetime of a session; the client
// never reloads them.
package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PrivateKeyEnv names the environment variable holding the signing key.
// Secrets never live in the config file.
const PrivateKeyEnv = "GRIDMARKET_PRIVATE_KEY"

const (
	defaultBalancePollInterval = 10 * time.Second
	defaultListingPollInterval = 15 * time.Second
	defaultListenAddr          = ":8080"
	defaultJournalDir          = "./wal/activity"
)

// AssetConfig describes one tracked token contract.
type AssetConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

// Config is the full client configuration.
type Config struct {
	RPCURL              string        `yaml:"rpc_url"`
	Marketplace         string        `yaml:"marketplace"`
	Assets              []AssetConfig `yaml:"assets"`
	SaleAsset           string        `yaml:"sale_asset"`
	BalancePollInterval time.Duration `yaml:"balance_poll_interval"`
	ListingPollInterval time.Duration `yaml:"listing_poll_interval"`
	ListenAddr          string        `yaml:"listen_addr"`
	JournalDir          string        `yaml:"journal_dir"`

	// PrivateKey is populated from the environment, never from YAML.
	PrivateKey string `yaml:"-"`
}

// Get resolves configuration from --config or from individual flags.
func Get() (Config, error) {
	var (
		configPath  = flag.String("config", "", "path to yaml config")
		rpcURL      = flag.String("rpc", "http://127.0.0.1:8545", "ledger json-rpc endpoint")
		marketplace = flag.String("marketplace", "", "marketplace contract address")
		etkn        = flag.String("etkn", "", "energy token contract address")
		cct         = flag.String("cct", "", "carbon credit token contract address")
		balancePoll = flag.Duration("balancepollinterval", defaultBalancePollInterval, "balance refresh interval")
		listingPoll = flag.Duration("listingpollinterval", defaultListingPollInterval, "listing refresh interval")
		listenAddr  = flag.String("listen", defaultListenAddr, "web ui listen address")
		journalDir  = flag.String("journaldir", defaultJournalDir, "activity journal directory")
	)
	flag.Parse()

	var cfg Config
	if *configPath != "" {
		loaded, err := fromYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	} else {
		cfg = Config{
			RPCURL:      *rpcURL,
			Marketplace: *marketplace,
			Assets: []AssetConfig{
				{Symbol: "ETKN", Address: *etkn, Decimals: 18},
				{Symbol: "CCT", Address: *cct, Decimals: 18},
			},
			SaleAsset:           "ETKN",
			BalancePollInterval: *balancePoll,
			ListingPollInterval: *listingPoll,
			ListenAddr:          *listenAddr,
			JournalDir:          *journalDir,
		}
	}

	cfg.applyDefaults()
	cfg.PrivateKey = os.Getenv(PrivateKeyEnv)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromYaml(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config file")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BalancePollInterval <= 0 {
		c.BalancePollInterval = defaultBalancePollInterval
	}
	if c.ListingPollInterval <= 0 {
		c.ListingPollInterval = defaultListingPollInterval
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.JournalDir == "" {
		c.JournalDir = defaultJournalDir
	}
	if c.SaleAsset == "" && len(c.Assets) > 0 {
		c.SaleAsset = c.Assets[0].Symbol
	}
	for i := range c.Assets {
		if c.Assets[i].Decimals == 0 {
			c.Assets[i].Decimals = 18
		}
	}
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if c.Marketplace == "" {
		return errors.New("marketplace address is required")
	}
	if len(c.Assets) == 0 {
		return errors.New("at least one asset is required")
	}
	for _, asset := range c.Assets {
		if asset.Symbol == "" || asset.Address == "" {
			return errors.Errorf("asset %q needs both symbol and address", asset.Symbol)
		}
	}
	if c.SaleAsset != "" && c.FindAsset(c.SaleAsset) == nil {
		return errors.Errorf("sale_asset %q is not among configured assets", c.SaleAsset)
	}
	if c.PrivateKey == "" {
		return errors.Errorf("%s environment variable must be set", PrivateKeyEnv)
	}
	return nil
}

// FindAsset returns the asset config for the symbol, or nil.
func (c *Config) FindAsset(symbol string) *AssetConfig {
	for i := range c.Assets {
		if strings.EqualFold(c.Assets[i].Symbol, symbol) {
			return &c.Assets[i]
		}
	}
	return nil
}
