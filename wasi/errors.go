package wasi

import (
	"fmt"

	"github.com/modfin/tooliscode/internal/wasierr"
)

var errConfigMissing = fmt.Errorf("%w", wasierr.ConfigError)

var errNopCallback = fmt.Errorf("%w: no tool callback configured", wasierr.CallbackError)
