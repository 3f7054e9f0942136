// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/utils/timer/mockable"
	"github.com/luxfi/suretyvm/vms/suretyvm/config"
)

type Backend struct {
	Config  *config.Config
	Clk     *mockable.Clock
	Sampler Sampler
	Log     log.Logger
}
