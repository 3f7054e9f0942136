// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/luxfi/ids"

	"github.com/luxfi/suretyvm/api/server"
	"github.com/luxfi/suretyvm/utils/profiler"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
	"github.com/luxfi/suretyvm/vms/suretyvm/state"
)

var (
	errUnknownKeys     = errors.New("unknown configuration keys")
	errNoRelayContract = errors.New("relay needs an authorized caller to submit through")
	errInvalidStatus   = errors.New("invalid relay status code")
)

// Config is the configuration of the daemon. Addresses are kept in their
// string form until the VM configuration is built.
type Config struct {
	HTTPHost        string        `toml:"http-host" env:"SURETY_HTTP_HOST" json:"httpHost"`
	HTTPPort        uint          `toml:"http-port" env:"SURETY_HTTP_PORT" json:"httpPort"`
	AllowedOrigins  []string      `toml:"http-allowed-origins" env:"SURETY_HTTP_ALLOWED_ORIGINS" json:"httpAllowedOrigins"`
	AllowedHosts    []string      `toml:"http-allowed-hosts" env:"SURETY_HTTP_ALLOWED_HOSTS" json:"httpAllowedHosts"`
	HTTPAliases     []string      `toml:"http-aliases" env:"SURETY_HTTP_ALIASES" json:"httpAliases"`
	ShutdownTimeout time.Duration `toml:"http-shutdown-timeout" env:"SURETY_HTTP_SHUTDOWN_TIMEOUT" json:"httpShutdownTimeout"`
	AdminAPIEnabled bool          `toml:"api-admin-enabled" env:"SURETY_API_ADMIN_ENABLED" json:"apiAdminEnabled"`

	HTTP server.HTTPConfig `toml:"http" json:"http"`

	DBDir              string          `toml:"db-dir" env:"SURETY_DB_DIR" json:"dbDir"`
	ProfileDir         string          `toml:"profile-dir" env:"SURETY_PROFILE_DIR" json:"profileDir"`
	ContinuousProfiler profiler.Config `toml:"profile-continuous" json:"profileContinuous"`

	Owner                   string   `toml:"owner" env:"SURETY_OWNER" json:"owner"`
	BootstrapAirline        string   `toml:"bootstrap-airline" env:"SURETY_BOOTSTRAP_AIRLINE" json:"bootstrapAirline"`
	BootstrapAirlineName    string   `toml:"bootstrap-airline-name" env:"SURETY_BOOTSTRAP_AIRLINE_NAME" json:"bootstrapAirlineName"`
	AuthorizedCallers       []string `toml:"authorized-callers" env:"SURETY_AUTHORIZED_CALLERS" json:"authorizedCallers"`
	FundingThreshold        uint64   `toml:"funding-threshold" env:"SURETY_FUNDING_THRESHOLD" json:"fundingThreshold"`
	DirectRegistrationLimit uint64   `toml:"direct-registration-limit" env:"SURETY_DIRECT_REGISTRATION_LIMIT" json:"directRegistrationLimit"`
	MaxPremium              uint64   `toml:"max-premium" env:"SURETY_MAX_PREMIUM" json:"maxPremium"`
	PayoutNumerator         uint64   `toml:"payout-numerator" env:"SURETY_PAYOUT_NUMERATOR" json:"payoutNumerator"`
	PayoutDenominator       uint64   `toml:"payout-denominator" env:"SURETY_PAYOUT_DENOMINATOR" json:"payoutDenominator"`
	OracleFee               uint64   `toml:"oracle-fee" env:"SURETY_ORACLE_FEE" json:"oracleFee"`
	OracleQuorum            uint64   `toml:"oracle-quorum" env:"SURETY_ORACLE_QUORUM" json:"oracleQuorum"`
	SamplerSeed             uint64   `toml:"sampler-seed" env:"SURETY_SAMPLER_SEED" json:"samplerSeed"`

	RelayOracles  int    `toml:"relay-oracles" env:"SURETY_RELAY_ORACLES" json:"relayOracles"`
	RelayContract string `toml:"relay-contract" env:"SURETY_RELAY_CONTRACT" json:"relayContract"`
	RelayStatus   int    `toml:"relay-status" env:"SURETY_RELAY_STATUS" json:"relayStatus"`
	RelaySeed     uint64 `toml:"relay-seed" env:"SURETY_RELAY_SEED" json:"relaySeed"`
}

func DefaultConfig() Config {
	vm := config.DefaultConfig()
	return Config{
		HTTPHost:        "127.0.0.1",
		HTTPPort:        9650,
		AllowedOrigins:  []string{"*"},
		AllowedHosts:    []string{"localhost"},
		HTTPAliases:     []string{"flightsurety"},
		ShutdownTimeout: 10 * time.Second,
		HTTP: server.HTTPConfig{
			ReadHeaderTimeout: 30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},

		ProfileDir: "profiles",
		ContinuousProfiler: profiler.Config{
			Freq:        15 * time.Minute,
			MaxNumFiles: 5,
		},

		BootstrapAirlineName:    vm.BootstrapAirlineName,
		FundingThreshold:        vm.FundingThreshold,
		DirectRegistrationLimit: vm.DirectRegistrationLimit,
		MaxPremium:              vm.MaxPremium,
		PayoutNumerator:         vm.PayoutNumerator,
		PayoutDenominator:       vm.PayoutDenominator,
		OracleFee:               vm.OracleRegistrationFee,
		OracleQuorum:            vm.OracleQuorum,

		RelayOracles: 20,
		RelayStatus:  -1,
		RelaySeed:    1,
	}
}

// LoadFile overlays the keys set in the TOML file at [path] onto [c].
func LoadFile(path string, c *Config) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("%w in %s: %s", errUnknownKeys, path, strings.Join(keys, ", "))
	}
	return nil
}

// ParseEnv overlays the SURETY_* environment variables onto [c].
func ParseEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.HTTPHost, strconv.FormatUint(uint64(c.HTTPPort), 10))
}

// VMConfig returns the configuration of the hosted VM.
func (c *Config) VMConfig() (config.Config, error) {
	vm := config.DefaultConfig()

	var err error
	if c.Owner != "" {
		vm.Owner, err = ids.ShortFromString(c.Owner)
		if err != nil {
			return vm, fmt.Errorf("invalid owner %q: %w", c.Owner, err)
		}
	}
	if c.BootstrapAirline != "" {
		vm.BootstrapAirline, err = ids.ShortFromString(c.BootstrapAirline)
		if err != nil {
			return vm, fmt.Errorf("invalid bootstrap airline %q: %w", c.BootstrapAirline, err)
		}
	}
	vm.AuthorizedCallers, err = parseAddresses(c.AuthorizedCallers)
	if err != nil {
		return vm, err
	}

	vm.BootstrapAirlineName = c.BootstrapAirlineName
	vm.FundingThreshold = c.FundingThreshold
	vm.DirectRegistrationLimit = c.DirectRegistrationLimit
	vm.MaxPremium = c.MaxPremium
	vm.PayoutNumerator = c.PayoutNumerator
	vm.PayoutDenominator = c.PayoutDenominator
	vm.OracleRegistrationFee = c.OracleFee
	vm.OracleQuorum = c.OracleQuorum
	vm.SamplerSeed = c.SamplerSeed
	return vm, vm.Verify()
}

// RelayCaller returns the authorized caller the relay submits through.
func (c *Config) RelayCaller(vm config.Config) (ids.ShortID, error) {
	if c.RelayContract != "" {
		return ids.ShortFromString(c.RelayContract)
	}
	if len(vm.AuthorizedCallers) == 0 {
		return ids.ShortEmpty, errNoRelayContract
	}
	return vm.AuthorizedCallers[0], nil
}

// RelayReport returns the status code the relay reports, or false if it
// reports random codes.
func (c *Config) RelayReport() (uint8, bool, error) {
	if c.RelayStatus < 0 {
		return 0, false, nil
	}
	if c.RelayStatus > 255 || !state.ValidStatus(uint8(c.RelayStatus)) {
		return 0, false, fmt.Errorf("%w: %d", errInvalidStatus, c.RelayStatus)
	}
	return uint8(c.RelayStatus), true, nil
}

func parseAddresses(addrs []string) ([]ids.ShortID, error) {
	parsed := make([]ids.ShortID, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		id, err := ids.ShortFromString(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		parsed = append(parsed, id)
	}
	return parsed, nil
}
