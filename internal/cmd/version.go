package cmd

import (
	"encoding/json"
	"fmt"
	"io"
)

type VersionCmd struct{}

func (v *VersionCmd) Run(ctx *Context) error {
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, map[string]string{"version": ctx.Version})
	}
	_, err := fmt.Fprintln(ctx.Out, ctx.Version)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
