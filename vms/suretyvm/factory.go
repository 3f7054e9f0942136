// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package suretyvm

import (
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/vms"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
)

var _ vms.Factory = (*Factory)(nil)

// Factory creates Surety VM instances sharing one configuration.
type Factory struct {
	config.Config
}

func (f *Factory) New(logger log.Logger) (interface{}, error) {
	if err := f.Config.Verify(); err != nil {
		return nil, err
	}
	return &VM{
		Config: f.Config,
		log:    logger,
	}, nil
}

func NewFactory(cfg config.Config) *Factory {
	return &Factory{Config: cfg}
}
