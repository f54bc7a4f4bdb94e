// Package cmd implements the fluxion CLI commands.
package cmd

import "context"

type cacheDirKey struct{}

// WithCacheDir returns a new context carrying the CLI cache directory.
func WithCacheDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, cacheDirKey{}, dir)
}

func cacheDirFrom(ctx context.Context) string {
	dir, _ := ctx.Value(cacheDirKey{}).(string)

	return dir
}
