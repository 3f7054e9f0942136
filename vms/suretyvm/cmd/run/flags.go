// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"github.com/spf13/pflag"
)

const (
	ConfigFileKey = "config-file"

	HTTPHostKey            = "http-host"
	HTTPPortKey            = "http-port"
	HTTPAllowedOriginsKey  = "http-allowed-origins"
	HTTPAllowedHostsKey    = "http-allowed-hosts"
	HTTPAliasesKey         = "http-aliases"
	HTTPShutdownTimeoutKey = "http-shutdown-timeout"
	AdminAPIEnabledKey     = "api-admin-enabled"

	DBDirKey      = "db-dir"
	ProfileDirKey = "profile-dir"

	ContinuousProfilerEnabledKey = "profile-continuous-enabled"
	ContinuousProfilerFreqKey    = "profile-continuous-freq"

	OwnerKey                   = "owner"
	BootstrapAirlineKey        = "bootstrap-airline"
	BootstrapAirlineNameKey    = "bootstrap-airline-name"
	AuthorizedCallersKey       = "authorized-callers"
	FundingThresholdKey        = "funding-threshold"
	DirectRegistrationLimitKey = "direct-registration-limit"
	MaxPremiumKey              = "max-premium"
	PayoutNumeratorKey         = "payout-numerator"
	PayoutDenominatorKey       = "payout-denominator"
	OracleFeeKey               = "oracle-fee"
	OracleQuorumKey            = "oracle-quorum"
	SamplerSeedKey             = "sampler-seed"

	RelayOraclesKey  = "relay-oracles"
	RelayContractKey = "relay-contract"
	RelayStatusKey   = "relay-status"
	RelaySeedKey     = "relay-seed"
)

func AddFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()

	flags.String(ConfigFileKey, "", "TOML file to read the configuration from")

	flags.String(HTTPHostKey, d.HTTPHost, "Address of the HTTP server")
	flags.Uint(HTTPPortKey, d.HTTPPort, "Port of the HTTP server")
	flags.StringSlice(HTTPAllowedOriginsKey, d.AllowedOrigins, "Origins allowed to make cross origin requests")
	flags.StringSlice(HTTPAllowedHostsKey, d.AllowedHosts, "Hostnames the HTTP server answers to")
	flags.StringSlice(HTTPAliasesKey, d.HTTPAliases, "Additional bases the surety API is served under")
	flags.Duration(HTTPShutdownTimeoutKey, d.ShutdownTimeout, "Maximum duration to wait for in flight requests on shutdown")
	flags.Bool(AdminAPIEnabledKey, d.AdminAPIEnabled, "Serve the admin API")

	flags.String(DBDirKey, d.DBDir, "Directory of the badger database. Empty keeps the state in memory")
	flags.String(ProfileDirKey, d.ProfileDir, "Directory profiles are written to")
	flags.Bool(ContinuousProfilerEnabledKey, d.ContinuousProfiler.Enabled, "Continuously write timestamped profiling windows")
	flags.Duration(ContinuousProfilerFreqKey, d.ContinuousProfiler.Freq, "Period of the continuous profiler")

	flags.String(OwnerKey, d.Owner, "Address allowed to manage the contract (required)")
	flags.String(BootstrapAirlineKey, d.BootstrapAirline, "Airline registered at genesis (required)")
	flags.String(BootstrapAirlineNameKey, d.BootstrapAirlineName, "Name of the genesis airline")
	flags.StringSlice(AuthorizedCallersKey, d.AuthorizedCallers, "Callers authorized at genesis")
	flags.Uint64(FundingThresholdKey, d.FundingThreshold, "Escrow in µLUX an airline must hold to participate")
	flags.Uint64(DirectRegistrationLimitKey, d.DirectRegistrationLimit, "Registered airlines below which registration needs no vote")
	flags.Uint64(MaxPremiumKey, d.MaxPremium, "Largest premium in µLUX of a single policy")
	flags.Uint64(PayoutNumeratorKey, d.PayoutNumerator, "Numerator of the payout multiplier")
	flags.Uint64(PayoutDenominatorKey, d.PayoutDenominator, "Denominator of the payout multiplier")
	flags.Uint64(OracleFeeKey, d.OracleFee, "Oracle registration fee in µLUX")
	flags.Uint64(OracleQuorumKey, d.OracleQuorum, "Matching reports that finalize a flight status")
	flags.Uint64(SamplerSeedKey, d.SamplerSeed, "Seed of the oracle index sampler")

	flags.Int(RelayOraclesKey, d.RelayOracles, "Number of simulated oracles. Zero disables the relay")
	flags.String(RelayContractKey, d.RelayContract, "Authorized caller the relay submits through. Defaults to the first authorized caller")
	flags.Int(RelayStatusKey, d.RelayStatus, "Status code every simulated oracle reports. Negative reports random codes")
	flags.Uint64(RelaySeedKey, d.RelaySeed, "Seed of the simulated oracle addresses")
}

// ParseFlags builds the configuration from the defaults, the configuration
// file, the environment and the flags set on the command line, in that order
// of precedence.
func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	path, err := flags.GetString(ConfigFileKey)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := LoadFile(path, &config); err != nil {
			return nil, err
		}
	}
	if err := ParseEnv(&config); err != nil {
		return nil, err
	}
	if err := applyFlags(flags, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyFlags(flags *pflag.FlagSet, c *Config) error {
	var err error
	set := func(key string, apply func() error) {
		if err == nil && flags.Changed(key) {
			err = apply()
		}
	}

	set(HTTPHostKey, func() (err error) { c.HTTPHost, err = flags.GetString(HTTPHostKey); return })
	set(HTTPPortKey, func() (err error) { c.HTTPPort, err = flags.GetUint(HTTPPortKey); return })
	set(HTTPAllowedOriginsKey, func() (err error) { c.AllowedOrigins, err = flags.GetStringSlice(HTTPAllowedOriginsKey); return })
	set(HTTPAllowedHostsKey, func() (err error) { c.AllowedHosts, err = flags.GetStringSlice(HTTPAllowedHostsKey); return })
	set(HTTPAliasesKey, func() (err error) { c.HTTPAliases, err = flags.GetStringSlice(HTTPAliasesKey); return })
	set(HTTPShutdownTimeoutKey, func() (err error) { c.ShutdownTimeout, err = flags.GetDuration(HTTPShutdownTimeoutKey); return })
	set(AdminAPIEnabledKey, func() (err error) { c.AdminAPIEnabled, err = flags.GetBool(AdminAPIEnabledKey); return })

	set(DBDirKey, func() (err error) { c.DBDir, err = flags.GetString(DBDirKey); return })
	set(ProfileDirKey, func() (err error) { c.ProfileDir, err = flags.GetString(ProfileDirKey); return })
	set(ContinuousProfilerEnabledKey, func() (err error) {
		c.ContinuousProfiler.Enabled, err = flags.GetBool(ContinuousProfilerEnabledKey)
		return
	})
	set(ContinuousProfilerFreqKey, func() (err error) {
		c.ContinuousProfiler.Freq, err = flags.GetDuration(ContinuousProfilerFreqKey)
		return
	})

	set(OwnerKey, func() (err error) { c.Owner, err = flags.GetString(OwnerKey); return })
	set(BootstrapAirlineKey, func() (err error) { c.BootstrapAirline, err = flags.GetString(BootstrapAirlineKey); return })
	set(BootstrapAirlineNameKey, func() (err error) { c.BootstrapAirlineName, err = flags.GetString(BootstrapAirlineNameKey); return })
	set(AuthorizedCallersKey, func() (err error) { c.AuthorizedCallers, err = flags.GetStringSlice(AuthorizedCallersKey); return })
	set(FundingThresholdKey, func() (err error) { c.FundingThreshold, err = flags.GetUint64(FundingThresholdKey); return })
	set(DirectRegistrationLimitKey, func() (err error) {
		c.DirectRegistrationLimit, err = flags.GetUint64(DirectRegistrationLimitKey)
		return
	})
	set(MaxPremiumKey, func() (err error) { c.MaxPremium, err = flags.GetUint64(MaxPremiumKey); return })
	set(PayoutNumeratorKey, func() (err error) { c.PayoutNumerator, err = flags.GetUint64(PayoutNumeratorKey); return })
	set(PayoutDenominatorKey, func() (err error) { c.PayoutDenominator, err = flags.GetUint64(PayoutDenominatorKey); return })
	set(OracleFeeKey, func() (err error) { c.OracleFee, err = flags.GetUint64(OracleFeeKey); return })
	set(OracleQuorumKey, func() (err error) { c.OracleQuorum, err = flags.GetUint64(OracleQuorumKey); return })
	set(SamplerSeedKey, func() (err error) { c.SamplerSeed, err = flags.GetUint64(SamplerSeedKey); return })

	set(RelayOraclesKey, func() (err error) { c.RelayOracles, err = flags.GetInt(RelayOraclesKey); return })
	set(RelayContractKey, func() (err error) { c.RelayContract, err = flags.GetString(RelayContractKey); return })
	set(RelayStatusKey, func() (err error) { c.RelayStatus, err = flags.GetInt(RelayStatusKey); return })
	set(RelaySeedKey, func() (err error) { c.RelaySeed, err = flags.GetUint64(RelaySeedKey); return })
	return err
}
