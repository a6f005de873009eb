package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"strconv"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// RecordCmd groups the record subcommands.
type RecordCmd struct {
	Add    RecordAddCmd    `cmd:"" help:"Add a record"`
	Update RecordUpdateCmd `cmd:"" help:"Update fields of a record"`
	Delete RecordDeleteCmd `cmd:"" help:"Delete a record"`
	List   RecordListCmd   `cmd:"" help:"List a collection"`
}

// FieldFlags collects record fields from --set pairs and a --json object.
// --set values that parse as integers are stored as numbers.
type FieldFlags struct {
	Set  map[string]string `short:"s" help:"Field value as key=value (repeatable)"`
	JSON string            `name:"json" help:"Fields as a JSON object"`
}

func (f FieldFlags) fields() (map[string]any, error) {
	out := make(map[string]any)
	if f.JSON != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(f.JSON)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil || obj == nil {
			return nil, errors.ValidationError("--json must be a JSON object").
				WithCause(err).
				Build()
		}
		maps.Copy(out, obj)
	}
	for k, v := range f.Set {
		if n, err := strconv.Atoi(v); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil, errors.ValidationError("no fields given (use --set key=value or --json)").Build()
	}
	return out, nil
}

// RecordAddCmd implements 'record add'.
type RecordAddCmd struct {
	Kind   string     `arg:"" help:"Collection (reviews, faqs, gallery, reels)"`
	Fields FieldFlags `embed:""`
}

func (c *RecordAddCmd) Run(g *Global, root *CLI) error {
	kind, err := content.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	fields, err := c.Fields.fields()
	if err != nil {
		return err
	}
	return mutateRecord(g, root, func(ctx context.Context, rt *site.Runtime) (site.MutationResult, error) {
		return rt.Add(ctx, kind, fields)
	})
}

// RecordUpdateCmd implements 'record update'.
type RecordUpdateCmd struct {
	Kind   string     `arg:"" help:"Collection"`
	ID     int        `arg:"" help:"Record id"`
	Fields FieldFlags `embed:""`
}

func (c *RecordUpdateCmd) Run(g *Global, root *CLI) error {
	kind, err := content.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	patch, err := c.Fields.fields()
	if err != nil {
		return err
	}
	return mutateRecord(g, root, func(ctx context.Context, rt *site.Runtime) (site.MutationResult, error) {
		return rt.Update(ctx, kind, c.ID, patch)
	})
}

// RecordDeleteCmd implements 'record delete'.
type RecordDeleteCmd struct {
	Kind string `arg:"" help:"Collection"`
	ID   int    `arg:"" help:"Record id"`
}

func (c *RecordDeleteCmd) Run(g *Global, root *CLI) error {
	kind, err := content.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	return mutateRecord(g, root, func(ctx context.Context, rt *site.Runtime) (site.MutationResult, error) {
		return rt.Delete(ctx, kind, c.ID)
	})
}

// RecordListCmd implements 'record list'.
type RecordListCmd struct {
	Kind string `arg:"" help:"Collection"`
}

func (c *RecordListCmd) Run(g *Global, root *CLI) error {
	kind, err := content.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(_ *config.Config, rt *site.Runtime) error {
		seq, err := rt.List(ctx, kind)
		if err != nil {
			return err
		}
		return g.printJSON(seq)
	})
}

func mutateRecord(g *Global, root *CLI, op func(context.Context, *site.Runtime) (site.MutationResult, error)) error {
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(_ *config.Config, rt *site.Runtime) error {
		res, err := op(ctx, rt)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			g.logger().Warn(w)
		}
		return g.printJSON(res)
	})
}
