package buildsys

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scriptisto/scriptisto/pkg/scriptlog"
)

func log(ctx context.Context) *zerolog.Logger {
	return scriptlog.Log(ctx)
}
