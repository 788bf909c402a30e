package globals

import (
	"context"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/components/telemetry"
)

type key struct{}

// Value holds what every command needs, built once from the loaded config.
type Value struct {
	Config Config
	Tel    telemetry.API
	List   *aagslist.Cache
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
