// Package config loads the service configuration from a YAML file or command-line flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/pkg/format"
	"gopkg.in/yaml.v3"
)

// RelayTokenEnv holds the bearer token for the message relay.
const RelayTokenEnv = "BAZAR_RELAY_TOKEN"

const (
	DefaultComputeUnitURL = "https://cu.ao-testnet.xyz"
	DefaultGatewayURL     = "https://arweave.net"
	DefaultListenAddr     = ":8080"
	DefaultJournalDir     = "./wal/store"

	DefaultMarketProcess   = "hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q"
	DefaultRewardsProcess  = "DM3FoZUq_yebASPhgd8pEIRIzDW6muXEhxz5-JwbZwo"
	DefaultTokenProcess    = "xU9zFkq3X2ZQ6olwNVvr1vUWIjc3kXTWr7xKQD6dh10"
	DefaultRegistryProcess = "SNy4m-DrqxWl01YqGM4sxI8qCni-58re8uuJLvZPypY"
	DefaultStampsProcess   = "LaC2VtxqGekpRPuJh-TkI_ByAqCS2_KB3YuhMJ5yBtc"
)

// Processes are the ids of the remote processes the service reads from.
type Processes struct {
	Market       string `yaml:"market"`
	Rewards      string `yaml:"rewards"`
	DefaultToken string `yaml:"default_token"`
	Registry     string `yaml:"registry"`
	Stamps       string `yaml:"stamps"`
}

type Config struct {
	ComputeUnitURL string
	GatewayURL     string
	RelayURL       string
	RelayToken     string
	Processes      Processes
	// EscrowAddress holds listed quantities and is hidden from owners.
	EscrowAddress   string
	ViewerWallet    string
	ViewerProfileID string
	DefaultBanner   string

	ListenAddr   string
	TLSDomains   []string
	CertCacheDir string
	JournalDir   string

	RefreshInterval    time.Duration
	GatewayTimeout     time.Duration
	ReadsPerSecond     float64
	GatewayRetries     int
	SessionIdleTimeout time.Duration
}

type ConfigTmp struct {
	ComputeUnitURL     string        `yaml:"compute_unit_url"`
	GatewayURL         string        `yaml:"gateway_url,omitempty"`
	RelayURL           string        `yaml:"relay_url,omitempty"`
	Processes          Processes     `yaml:"processes"`
	EscrowAddress      string        `yaml:"escrow_address,omitempty"`
	ViewerWallet       string        `yaml:"viewer_wallet,omitempty"`
	ViewerProfileID    string        `yaml:"viewer_profile_id,omitempty"`
	DefaultBanner      string        `yaml:"default_banner,omitempty"`
	ListenAddr         string        `yaml:"listen_addr"`
	TLSDomains         []string      `yaml:"tls_domains,omitempty"`
	CertCacheDir       string        `yaml:"cert_cache_dir,omitempty"`
	JournalDir         string        `yaml:"journal_dir,omitempty"`
	RefreshInterval    time.Duration `yaml:"refresh_interval"`
	GatewayTimeout     time.Duration `yaml:"gateway_timeout,omitempty"`
	ReadsPerSecondStr  string        `yaml:"reads_per_second,omitempty"`
	GatewayRetriesStr  string        `yaml:"gateway_retries,omitempty"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ComputeUnitURL: DefaultComputeUnitURL,
		GatewayURL:     DefaultGatewayURL,
		Processes: Processes{
			Market:       DefaultMarketProcess,
			Rewards:      DefaultRewardsProcess,
			DefaultToken: DefaultTokenProcess,
			Registry:     DefaultRegistryProcess,
			Stamps:       DefaultStampsProcess,
		},
		EscrowAddress:      DefaultMarketProcess,
		ListenAddr:         DefaultListenAddr,
		JournalDir:         DefaultJournalDir,
		RefreshInterval:    time.Minute,
		GatewayTimeout:     30 * time.Second,
		ReadsPerSecond:     5,
		GatewayRetries:     3,
		SessionIdleTimeout: 30 * time.Minute,
	}
}

// Get parses args. With --config the YAML file wins, otherwise flags are used.
// The relay token always comes from the environment.
func Get(args []string) (Config, error) {
	def := Default()

	fs := flag.NewFlagSet("bazar", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	cu := fs.String("cu", def.ComputeUnitURL, "AO compute unit url")
	relayURL := fs.String("relay", "", "message relay url, empty disables user actions")
	listen := fs.String("listen", def.ListenAddr, "http listen address")
	domains := fs.String("tls-domains", "", "comma separated domains for automatic TLS")
	journalDir := fs.String("journal", def.JournalDir, "store update journal directory, empty disables it")
	wallet := fs.String("wallet", "", "viewer wallet address")
	profile := fs.String("profile", "", "viewer profile id")
	refresh := fs.Duration("refresh", def.RefreshInterval, "market and streaks refresh interval, 0 disables")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = def
		cfg.ComputeUnitURL = *cu
		cfg.RelayURL = *relayURL
		cfg.ListenAddr = *listen
		cfg.TLSDomains = splitList(*domains)
		cfg.JournalDir = *journalDir
		cfg.ViewerWallet = *wallet
		cfg.ViewerProfileID = *profile
		cfg.RefreshInterval = *refresh
	}

	cfg.RelayToken = os.Getenv(RelayTokenEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	cfg, err := getYaml(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var c ConfigTmp
	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	return c.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Default()

	cfg.ComputeUnitURL = orDefault(c.ComputeUnitURL, cfg.ComputeUnitURL)
	cfg.GatewayURL = orDefault(c.GatewayURL, cfg.GatewayURL)
	cfg.RelayURL = c.RelayURL
	cfg.Processes.Market = orDefault(c.Processes.Market, cfg.Processes.Market)
	cfg.Processes.Rewards = orDefault(c.Processes.Rewards, cfg.Processes.Rewards)
	cfg.Processes.DefaultToken = orDefault(c.Processes.DefaultToken, cfg.Processes.DefaultToken)
	cfg.Processes.Registry = orDefault(c.Processes.Registry, cfg.Processes.Registry)
	cfg.Processes.Stamps = orDefault(c.Processes.Stamps, cfg.Processes.Stamps)
	cfg.EscrowAddress = orDefault(c.EscrowAddress, cfg.Processes.Market)
	cfg.ViewerWallet = c.ViewerWallet
	cfg.ViewerProfileID = c.ViewerProfileID
	cfg.DefaultBanner = c.DefaultBanner
	cfg.ListenAddr = orDefault(c.ListenAddr, cfg.ListenAddr)
	cfg.TLSDomains = c.TLSDomains
	cfg.CertCacheDir = c.CertCacheDir
	cfg.JournalDir = c.JournalDir
	cfg.RefreshInterval = c.RefreshInterval

	if c.GatewayTimeout > 0 {
		cfg.GatewayTimeout = c.GatewayTimeout
	}
	if c.SessionIdleTimeout > 0 {
		cfg.SessionIdleTimeout = c.SessionIdleTimeout
	}

	if c.ReadsPerSecondStr != "" {
		rps, err := strconv.ParseFloat(c.ReadsPerSecondStr, 64)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'reads_per_second' param in yaml config (must be a number)")
		}
		cfg.ReadsPerSecond = rps
	}
	if c.GatewayRetriesStr != "" {
		retries, err := strconv.Atoi(c.GatewayRetriesStr)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'gateway_retries' param in yaml config (must be an integer)")
		}
		cfg.GatewayRetries = retries
	}

	return cfg, nil
}

// Tmp converts the config back to its YAML form.
func (c Config) Tmp() ConfigTmp {
	return ConfigTmp{
		ComputeUnitURL:     c.ComputeUnitURL,
		GatewayURL:         c.GatewayURL,
		RelayURL:           c.RelayURL,
		Processes:          c.Processes,
		EscrowAddress:      c.EscrowAddress,
		ViewerWallet:       c.ViewerWallet,
		ViewerProfileID:    c.ViewerProfileID,
		DefaultBanner:      c.DefaultBanner,
		ListenAddr:         c.ListenAddr,
		TLSDomains:         c.TLSDomains,
		CertCacheDir:       c.CertCacheDir,
		JournalDir:         c.JournalDir,
		RefreshInterval:    c.RefreshInterval,
		GatewayTimeout:     c.GatewayTimeout,
		ReadsPerSecondStr:  strconv.FormatFloat(c.ReadsPerSecond, 'f', -1, 64),
		GatewayRetriesStr:  strconv.Itoa(c.GatewayRetries),
		SessionIdleTimeout: c.SessionIdleTimeout,
	}
}

// Validate checks the config for values the service cannot run with.
func (c Config) Validate() error {
	if c.ComputeUnitURL == "" {
		return errors.New("compute unit url is required")
	}

	processes := map[string]string{
		"market":        c.Processes.Market,
		"rewards":       c.Processes.Rewards,
		"default_token": c.Processes.DefaultToken,
		"registry":      c.Processes.Registry,
		"stamps":        c.Processes.Stamps,
	}
	for name, id := range processes {
		if !format.ValidTxID(id) {
			return errors.Errorf("invalid %s process id %q", name, id)
		}
	}

	if c.ViewerWallet != "" && !format.ValidAddress(c.ViewerWallet) {
		return errors.Errorf("invalid viewer wallet %q", c.ViewerWallet)
	}
	if c.ViewerProfileID != "" && !format.ValidTxID(c.ViewerProfileID) {
		return errors.Errorf("invalid viewer profile id %q", c.ViewerProfileID)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh interval must not be negative")
	}
	if c.ReadsPerSecond < 0 {
		return errors.New("reads per second must not be negative")
	}
	if c.GatewayRetries < 0 {
		return errors.New("gateway retries must not be negative")
	}

	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
